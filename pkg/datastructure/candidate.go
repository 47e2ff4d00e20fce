package datastructure

import "github.com/tylerkaska112/tripnav/pkg/geo"

// Completion is one raw search suggestion from the provider. Token is opaque to
// everything except the provider that minted it.
type Completion struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Token    string `json:"token"`
}

// SearchCandidate is a ranked suggestion surfaced while the user types. Distance
// and travel time stay nil until the candidate's background enrichment settles;
// IsPending flips to false when it settles or fails. The whole list is discarded
// when the query changes.
type SearchCandidate struct {
	Title             string          `json:"title"`
	Subtitle          string          `json:"subtitle"`
	Token             string          `json:"token"`
	Coord             *geo.Coordinate `json:"coord,omitempty"`
	DistanceMeters    *float64        `json:"distance_meters,omitempty"`
	TravelTimeSeconds *float64        `json:"travel_time_seconds,omitempty"`
	IsPending         bool            `json:"is_pending"`
}

func NewSearchCandidate(c Completion, pending bool) SearchCandidate {
	return SearchCandidate{
		Title:     c.Title,
		Subtitle:  c.Subtitle,
		Token:     c.Token,
		IsPending: pending,
	}
}
