package geo

import (
	"math"

	"github.com/tylerkaska112/tripnav/pkg/util"
)

/*
BearingTo. initial great-circle bearing from (p1Lat,p1Lon) to (p2Lat,p2Lon),
normalized to [0, 360).
https://www.movable-type.co.uk/scripts/latlong.html
*/
func BearingTo(p1Lat, p1Lon, p2Lat, p2Lon float64) float64 {

	dLon := util.DegreeToRadians(p2Lon - p1Lon)

	lat1 := util.DegreeToRadians(p1Lat)
	lat2 := util.DegreeToRadians(p2Lat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Mod(util.RadiansToDegree(math.Atan2(y, x))+360, 360.0)

	return brng
}

// BearingDegrees. bearing between two coordinates, normalized to [0, 360).
func BearingDegrees(from, to Coordinate) float64 {
	return BearingTo(from.GetLat(), from.GetLon(), to.GetLat(), to.GetLon())
}
