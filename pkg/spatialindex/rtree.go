package spatialindex

import (
	"github.com/tidwall/rtree"
	"github.com/tylerkaska112/tripnav/pkg/geo"
)

const (
	// below this vertex count a linear scan beats building and probing a tree
	linearScanCutoff = 64

	// off-route checks only care about distances near the 40 m threshold; a 1 km
	// box comfortably bounds the refinement set
	searchBoxRadiusMeters = 1000.0
)

// RouteVertexIndex answers nearest-vertex queries against a route polyline. Built
// once per route and replaced wholesale on reroute, like the route itself. The
// semantics are nearest VERTEX, matching geo.MinDistanceToPolylineVertices.
type RouteVertexIndex struct {
	tr       *rtree.RTreeG[int]
	vertices []geo.Coordinate
}

func NewRouteVertexIndex(polyline []geo.Coordinate) *RouteVertexIndex {
	idx := &RouteVertexIndex{vertices: polyline}
	if len(polyline) < linearScanCutoff {
		return idx
	}

	var tr rtree.RTreeG[int]
	for i, v := range polyline {
		tr.Insert([2]float64{v.GetLon(), v.GetLat()}, [2]float64{v.GetLon(), v.GetLat()}, i)
	}
	idx.tr = &tr
	return idx
}

func (idx *RouteVertexIndex) NumVertices() int {
	return len(idx.vertices)
}

// MinDistanceMeters returns the distance from q to the nearest polyline vertex.
// ok is false only for an empty polyline.
func (idx *RouteVertexIndex) MinDistanceMeters(q geo.Coordinate) (float64, bool) {
	if len(idx.vertices) == 0 {
		return 0, false
	}
	if idx.tr == nil {
		d, err := geo.MinDistanceToPolylineVertices(q, idx.vertices)
		if err != nil {
			return 0, false
		}
		return d, true
	}

	lowerLat, lowerLon := geo.GetDestinationPoint(q.GetLat(), q.GetLon(), 225, searchBoxRadiusMeters)
	upperLat, upperLon := geo.GetDestinationPoint(q.GetLat(), q.GetLon(), 45, searchBoxRadiusMeters)

	best := -1.0
	idx.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, i int) bool {
			if d := geo.DistanceMeters(q, idx.vertices[i]); best < 0 || d < best {
				best = d
			}
			return true
		})
	if best >= 0 {
		return best, true
	}

	// nothing inside the box: fall back to the full scan so the caller still
	// gets a true distance, not a guess
	d, err := geo.MinDistanceToPolylineVertices(q, idx.vertices)
	if err != nil {
		return 0, false
	}
	return d, true
}
