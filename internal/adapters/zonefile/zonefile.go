// Package zonefile reads the unsafe-zone list from a YAML or GeoJSON file.
package zonefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// File represents the root of a zones YAML file.
type File struct {
	Zones []Zone `yaml:"zones"`
}

// Zone is one unsafe point.
type Zone struct {
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
	Label string  `yaml:"label,omitempty"`
}

// Source implements ports.UnsafeZoneSource over a file on disk.
type Source struct {
	path string
}

// NewSource creates a Source for path. Files ending in .geojson or .json are
// read as a FeatureCollection of points; anything else as YAML.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// ListUnsafeZones reads and validates the file.
func (s *Source) ListUnsafeZones(ctx context.Context) ([]domain.UnsafeZone, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".geojson", ".json":
		return ParseGeoJSON(data)
	default:
		return ParseYAML(data)
	}
}

// ParseYAML decodes a zones document.
func ParseYAML(data []byte) ([]domain.UnsafeZone, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse zones yaml: %w", err)
	}
	zones := make([]domain.UnsafeZone, 0, len(f.Zones))
	for i, z := range f.Zones {
		p := domain.GeoPoint{Lat: z.Lat, Lon: z.Lon}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		zones = append(zones, domain.UnsafeZone{Center: p, Label: z.Label})
	}
	return zones, nil
}

// ParseGeoJSON decodes a FeatureCollection whose features are points.
// The optional "label" property becomes the zone label.
func ParseGeoJSON(data []byte) ([]domain.UnsafeZone, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse zones geojson: %w", err)
	}
	zones := make([]domain.UnsafeZone, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("zone %d: expected Point geometry, got %s", i, f.Geometry.GeoJSONType())
		}
		p := domain.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		zones = append(zones, domain.UnsafeZone{Center: p, Label: f.Properties.MustString("label", "")})
	}
	return zones, nil
}

// MarshalYAML renders zones in the file format read by ParseYAML.
func MarshalYAML(zones []domain.UnsafeZone) ([]byte, error) {
	f := File{Zones: make([]Zone, len(zones))}
	for i, z := range zones {
		f.Zones[i] = Zone{Lat: z.Center.Lat, Lon: z.Center.Lon, Label: z.Label}
	}
	return yaml.Marshal(f)
}
