package models

import "github.com/paulmach/orb"

// GeoPoint is a geocoded coordinate. The underlying orb.Point is (lon, lat).
type GeoPoint struct {
	orb.Point
}

// NewGeoPoint builds a point from latitude and longitude
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Point: orb.Point{lon, lat}}
}
