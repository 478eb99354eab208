package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
// Routing providers exchange points as [lon, lat]; use LonLat for that.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies inside the WGS 84 degree ranges.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", p.Lon)
	}
	return nil
}

// LonLat returns the point in routing order.
func (p GeoPoint) LonLat() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}

// LatLng is a latitude-first coordinate pair, the order map clients plot with.
type LatLng [2]float64

// ToLatLngPath converts a path to the latitude-first pairs sent to clients.
// This is the only place where the output order is flipped.
func ToLatLngPath(path []GeoPoint) []LatLng {
	out := make([]LatLng, len(path))
	for i, p := range path {
		out[i] = LatLng{p.Lat, p.Lon}
	}
	return out
}
