package datastructure

import (
	"github.com/tylerkaska112/tripnav/pkg/geo"
	"github.com/tylerkaska112/tripnav/pkg/util"
)

// RouteStep is one instruction-bearing element of a route. Immutable after
// creation; the maneuver point is the first vertex of the step polyline.
type RouteStep struct {
	instruction    string
	polyline       []geo.Coordinate
	distanceMeters float64
}

func NewRouteStep(instruction string, polyline []geo.Coordinate, distanceMeters float64) RouteStep {
	return RouteStep{
		instruction:    instruction,
		polyline:       polyline,
		distanceMeters: distanceMeters,
	}
}

func (s RouteStep) GetInstruction() string {
	return s.instruction
}

func (s RouteStep) GetPolyline() []geo.Coordinate {
	return s.polyline
}

func (s RouteStep) GetDistanceMeters() float64 {
	return s.distanceMeters
}

// ManeuverPoint returns the step's maneuver coordinate and whether the step has
// any geometry at all.
func (s RouteStep) ManeuverPoint() (geo.Coordinate, bool) {
	if len(s.polyline) == 0 {
		return geo.Coordinate{}, false
	}
	return s.polyline[0], true
}

// Route is an ordered sequence of steps plus the owning polyline. Never mutated
// in place: a reroute produces a new Route value that replaces the old one
// wholesale.
type Route struct {
	steps               []RouteStep
	totalDistanceMeters float64
	travelTimeSeconds   float64
	polyline            []geo.Coordinate
}

func NewRoute(steps []RouteStep, totalDistanceMeters, travelTimeSeconds float64,
	polyline []geo.Coordinate) (*Route, error) {
	if len(steps) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "route must have at least one step")
	}
	return &Route{
		steps:               steps,
		totalDistanceMeters: totalDistanceMeters,
		travelTimeSeconds:   travelTimeSeconds,
		polyline:            polyline,
	}, nil
}

func (r *Route) GetSteps() []RouteStep {
	return r.steps
}

func (r *Route) GetStep(i int) RouteStep {
	return r.steps[i]
}

func (r *Route) NumSteps() int {
	return len(r.steps)
}

func (r *Route) GetTotalDistanceMeters() float64 {
	return r.totalDistanceMeters
}

func (r *Route) GetTravelTimeSeconds() float64 {
	return r.travelTimeSeconds
}

func (r *Route) GetPolyline() []geo.Coordinate {
	return r.polyline
}
