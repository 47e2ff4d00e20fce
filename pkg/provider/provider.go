package provider

import (
	"context"

	"github.com/tylerkaska112/tripnav/pkg/datastructure"
	"github.com/tylerkaska112/tripnav/pkg/geo"
)

// RouteProvider is the external routing collaborator. The core consumes it and
// never implements geocoding or directions itself.
type RouteProvider interface {
	// SearchCompletions resolves free text to ranked suggestions. Returns
	// util.ErrNoResult (as wrapped code) when nothing matches.
	SearchCompletions(ctx context.Context, query string) ([]datastructure.Completion, error)

	// Resolve turns a completion token back into a coordinate.
	Resolve(ctx context.Context, token string) (geo.Coordinate, error)

	// Geocode resolves a free-text address. Returns util.ErrAddressNotFound code
	// when the address cannot be located.
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)

	// Route computes a drivable route. Returns util.ErrNoRouteAvailable code when
	// the directions service has nothing.
	Route(ctx context.Context, from, to geo.Coordinate) (*datastructure.Route, error)
}
