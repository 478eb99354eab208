package openrouteservice

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// PolylineCodec decodes Google encoded polylines (precision 5), the geometry
// format of openrouteservice JSON responses.
type PolylineCodec struct{}

// Decode returns the path in travel order.
func (PolylineCodec) Decode(encoded string) ([]domain.GeoPoint, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}
	path := make([]domain.GeoPoint, len(coords))
	for i, c := range coords {
		path[i] = domain.GeoPoint{Lat: c[0], Lon: c[1]}
	}
	return path, nil
}

// Encode is the inverse of Decode.
func (PolylineCodec) Encode(path []domain.GeoPoint) string {
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
