package geo

import (
	"github.com/twpayne/go-polyline"
	"github.com/tylerkaska112/tripnav/pkg/util"
)

// MinDistanceToPolylineVertices returns the minimum distance in meters from point
// to any vertex of the polyline. Vertex sampling, not segment projection: with
// sparse vertices this can over-estimate the distance to the path between them,
// which is acceptable for the off-route check it serves.
func MinDistanceToPolylineVertices(point Coordinate, poly []Coordinate) (float64, error) {
	if len(poly) == 0 {
		return 0, util.WrapErrorf(nil, util.ErrPolylineEmpty, "min distance to empty polyline is undefined")
	}

	best := DistanceMeters(point, poly[0])
	for _, v := range poly[1:] {
		if d := DistanceMeters(point, v); d < best {
			best = d
		}
	}
	return best, nil
}

// PolylineFromCoords encodes coords into a google encoded polyline string (1e5).
func PolylineFromCoords(coords []Coordinate) string {
	buf := make([][]float64, len(coords))
	for i, c := range coords {
		buf[i] = []float64{c.GetLat(), c.GetLon()}
	}
	return string(polyline.EncodeCoords(buf))
}

// CoordsFromPolyline decodes an encoded polyline with the given precision scale
// (1e5 for google, 1e6 for valhalla shapes).
func CoordsFromPolyline(encoded string, scale float64) ([]Coordinate, error) {
	codec := polyline.Codec{Dim: 2, Scale: scale}
	buf, _, err := codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, len(buf))
	for i, p := range buf {
		coords[i] = NewCoordinate(p[0], p[1])
	}
	return coords, nil
}
