package usecases

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
)

// DefaultRadiusMeters is the buffer radius around each unsafe zone.
const DefaultRadiusMeters = 200.0

// AvoidanceOptions configures buffering. Zero values take the defaults:
// 200 m, 64 segments, UTM zone 11N.
type AvoidanceOptions struct {
	RadiusMeters float64
	Segments     int
	Frames       geospatial.FrameSelector
}

func (o AvoidanceOptions) withDefaults() AvoidanceOptions {
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = DefaultRadiusMeters
	}
	if o.Segments <= 0 {
		o.Segments = geospatial.DefaultSegments
	}
	if o.Frames == nil {
		o.Frames = geospatial.UTMZone{Number: 11, North: true}
	}
	return o
}

// AvoidanceAssembler owns the unsafe-zone list and the avoidance region built
// from it. Both are fixed at construction and safe for concurrent reads.
type AvoidanceAssembler struct {
	zones  []domain.UnsafeZone
	opts   AvoidanceOptions
	region domain.AvoidanceRegion
}

// NewAvoidanceAssembler buffers every zone once. A zone that cannot be
// projected fails construction with a projection_out_of_range error.
func NewAvoidanceAssembler(zones []domain.UnsafeZone, opts AvoidanceOptions) (*AvoidanceAssembler, error) {
	opts = opts.withDefaults()
	owned := append([]domain.UnsafeZone(nil), zones...)

	buffered := make([]domain.BufferedZone, 0, len(owned))
	for i, z := range owned {
		bz, err := BufferZone(z.Center, opts.RadiusMeters, opts.Segments, opts.Frames)
		if err != nil {
			return nil, fmt.Errorf("unsafe zone %d: %w", i, err)
		}
		bz.Label = z.Label
		buffered = append(buffered, bz)
	}

	return &AvoidanceAssembler{
		zones:  owned,
		opts:   opts,
		region: Assemble(buffered),
	}, nil
}

// Region returns the avoidance region. Callers must not modify the rings.
func (a *AvoidanceAssembler) Region() domain.AvoidanceRegion {
	return domain.AvoidanceRegion{Zones: append([]domain.BufferedZone(nil), a.region.Zones...)}
}

// Zones returns a copy of the unsafe-zone list.
func (a *AvoidanceAssembler) Zones() []domain.UnsafeZone {
	return append([]domain.UnsafeZone(nil), a.zones...)
}

// RadiusMeters is the buffer radius in use.
func (a *AvoidanceAssembler) RadiusMeters() float64 {
	return a.opts.RadiusMeters
}

// ZonesNear returns the buffered zones whose center lies within radiusMeters
// of center, in region order.
func (a *AvoidanceAssembler) ZonesNear(center domain.GeoPoint, radiusMeters float64) []domain.BufferedZone {
	c := orb.Point{center.Lon, center.Lat}
	box := geospatial.Bound(c, radiusMeters)

	var out []domain.BufferedZone
	for _, z := range a.region.Zones {
		p := orb.Point{z.Center.Lon, z.Center.Lat}
		if !box.Contains(p) {
			continue
		}
		if geospatial.Distance(c, p) <= radiusMeters {
			out = append(out, z)
		}
	}
	return out
}

// BufferZone builds the closed polygon of all points within radiusMeters of
// center, computed in the planar frame chosen by frames.
func BufferZone(center domain.GeoPoint, radiusMeters float64, segments int, frames geospatial.FrameSelector) (domain.BufferedZone, error) {
	if err := center.Validate(); err != nil {
		return domain.BufferedZone{}, domain.ProjectionOutOfRange(err.Error(), err)
	}
	ring, err := geospatial.Buffer(orb.Point{center.Lon, center.Lat}, radiusMeters, segments, frames)
	if err != nil {
		if errors.Is(err, geospatial.ErrOutOfRange) {
			return domain.BufferedZone{}, domain.ProjectionOutOfRange(
				fmt.Sprintf("cannot buffer %.5f,%.5f: %v", center.Lat, center.Lon, err), err)
		}
		return domain.BufferedZone{}, err
	}

	pts := make([]domain.GeoPoint, len(ring))
	for i, v := range ring {
		pts[i] = domain.GeoPoint{Lat: v.Lat(), Lon: v.Lon()}
	}
	return domain.BufferedZone{Center: center, Radius: radiusMeters, Ring: pts}, nil
}

// Assemble collects buffered zones into one avoidance region, preserving
// order and keeping overlaps. No zones yields the empty region.
func Assemble(zones []domain.BufferedZone) domain.AvoidanceRegion {
	if len(zones) == 0 {
		return domain.AvoidanceRegion{}
	}
	return domain.AvoidanceRegion{Zones: append([]domain.BufferedZone(nil), zones...)}
}
