// Package geo provides great-circle distance and proximity scoring helpers.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// scoreFalloffKm is the distance at which proximity contributes nothing:
// anything at or beyond 50 km scores 0.
const scoreFalloffKm = 50.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies within coordinate bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceKm returns the haversine great-circle distance between two points,
// rounded to two decimal places.
func DistanceKm(a, b Point) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return round2(earthRadiusKm * c)
}

// ProximityScore maps a distance in kilometres to [0, 1]: 1 at zero distance,
// falling linearly to 0 at 50 km and beyond.
func ProximityScore(distanceKm float64) float64 {
	return 1 - math.Min(distanceKm/scoreFalloffKm, 1)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
