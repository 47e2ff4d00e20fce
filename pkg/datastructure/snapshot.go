package datastructure

import "github.com/tylerkaska112/tripnav/pkg/geo"

// NavigationSnapshot is the read-only view of the session state handed to the
// engine and host. The live state itself is owned exclusively by the session.
type NavigationSnapshot struct {
	HasRoute                   bool            `json:"has_route"`
	Rerouting                  bool            `json:"rerouting"`
	Destination                geo.Coordinate  `json:"destination"`
	DestinationLabel           string          `json:"destination_label"`
	CurrentStepIndex           int             `json:"current_step_index"`
	CurrentInstruction         string          `json:"current_instruction"`
	DistanceToManeuverMeters   float64         `json:"distance_to_maneuver_meters"`
	RemainingDistanceMeters    float64         `json:"remaining_distance_meters"`
	EstimatedTravelTimeSeconds float64         `json:"estimated_travel_time_seconds"`
	TotalDistanceMeters        float64         `json:"total_distance_meters"`
	NumSteps                   int             `json:"num_steps"`
	SnappedPosition            *geo.Coordinate `json:"snapped_position,omitempty"`
}
