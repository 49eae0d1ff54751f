package geo

import (
	"math"

	"social-explore-client/internal/models"
)

const (
	earthRadiusKm = 6371

	// web mercator ground resolution at zoom 0 on the equator, meters per pixel
	metersPerPixelZoom0 = 156543.03392
)

// DistanceKm returns the great-circle distance between two points
func DistanceKm(from, to models.Coordinate) float64 {
	dLat := toRad(to.Latitude - from.Latitude)
	dLng := toRad(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(from.Latitude))*math.Cos(toRad(to.Latitude))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// PathLengthKm returns the geodesic length of a polyline
func PathLengthKm(path []models.Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// MetersPerPixel returns the ground distance covered by one screen pixel at
// latitude and zoom
func MetersPerPixel(latitude float64, zoom int) float64 {
	return metersPerPixelZoom0 * math.Cos(toRad(latitude)) / math.Pow(2, float64(zoom))
}

// WithinPixels reports whether b is within px screen pixels of a at zoom
func WithinPixels(a, b models.Coordinate, px float64, zoom int) bool {
	tolerance := px * MetersPerPixel(a.Latitude, zoom)
	return DistanceKm(a, b)*1000 <= tolerance
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
