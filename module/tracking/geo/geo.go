// Package geo holds the distance and containment math shared by the
// tracking engine. Coordinates are WGS84 degrees; distances are meters.
package geo

import (
	"math"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

const earthRadiusMeters = 6371000

// boundaryEpsilon is the tolerance, in degrees, for treating a point as lying
// on a polygon edge.
const boundaryEpsilon = 1e-12

// Distance returns the haversine great-circle distance between a and b.
func Distance(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PointInPolygon reports whether p lies inside ring, which may be open or
// closed. Points on an edge or vertex count as inside. Rings with fewer than
// three vertices contain nothing.
func PointInPolygon(p domain.GeoPoint, ring []domain.GeoPoint) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(p, ring[j], ring[i]) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lon < (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
	}
	return inside
}

// Centroid is the arithmetic mean of the ring's distinct vertices. Good enough
// for farm-sized zones; not a geodesic centroid.
func Centroid(ring []domain.GeoPoint) domain.GeoPoint {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	if n == 0 {
		return domain.GeoPoint{}
	}
	var lat, lon float64
	for _, p := range ring[:n] {
		lat += p.Lat
		lon += p.Lon
	}
	return domain.GeoPoint{Lat: lat / float64(n), Lon: lon / float64(n)}
}

// OffsetMeters moves p by the given north and east displacements using a
// local flat-earth approximation.
func OffsetMeters(p domain.GeoPoint, north, east float64) domain.GeoPoint {
	dLat := north / earthRadiusMeters
	dLon := east / (earthRadiusMeters * math.Cos(toRad(p.Lat)))
	return domain.GeoPoint{
		Lat: p.Lat + dLat*180/math.Pi,
		Lon: p.Lon + dLon*180/math.Pi,
	}
}

func onSegment(p, a, b domain.GeoPoint) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > boundaryEpsilon {
		return false
	}
	return p.Lat >= math.Min(a.Lat, b.Lat)-boundaryEpsilon &&
		p.Lat <= math.Max(a.Lat, b.Lat)+boundaryEpsilon &&
		p.Lon >= math.Min(a.Lon, b.Lon)-boundaryEpsilon &&
		p.Lon <= math.Max(a.Lon, b.Lon)+boundaryEpsilon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
