package geo

import (
	"github.com/golang/geo/s2"
)

// ProjectPointToLineCoord projects snap onto the segment (pointA, pointB).
func ProjectPointToLineCoord(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// SnapToPolyline returns the point on the polyline's segments nearest to p. Used
// for the snapped display position fed to the host camera, not for the off-route
// check (that one is vertex-sampled). Returns p unchanged when the polyline has
// fewer than two vertices.
func SnapToPolyline(p Coordinate, poly []Coordinate) Coordinate {
	if len(poly) == 0 {
		return p
	}
	if len(poly) == 1 {
		return poly[0]
	}

	best := poly[0]
	bestDist := DistanceMeters(p, best)
	for i := 0; i+1 < len(poly); i++ {
		proj := ProjectPointToLineCoord(poly[i], poly[i+1], p)
		if d := DistanceMeters(p, proj); d < bestDist {
			bestDist = d
			best = proj
		}
	}
	return best
}
