package geospatial

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// MinSegments keeps the polygon within 0.5% of the true circle.
	MinSegments = 32
	// DefaultSegments matches a 16-segments-per-quadrant circle.
	DefaultSegments = 64
)

// Buffer returns a closed lon/lat ring approximating every point within
// radiusMeters of center. The circle is built in the planar frame chosen by
// sel, so the radius is a ground distance rather than a degree offset.
// Vertices lie exactly on the circle; the ring winds counter-clockwise.
func Buffer(center orb.Point, radiusMeters float64, segments int, sel FrameSelector) (orb.Ring, error) {
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return nil, fmt.Errorf("buffer radius must be a positive number of meters, got %v", radiusMeters)
	}
	if segments < MinSegments {
		segments = MinSegments
	}

	frame, err := sel.FrameFor(center)
	if err != nil {
		return nil, err
	}
	c, err := frame.Forward(center)
	if err != nil {
		return nil, err
	}

	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		v := orb.Point{c.X() + radiusMeters*math.Cos(theta), c.Y() + radiusMeters*math.Sin(theta)}
		g, err := frame.Inverse(v)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		ring = append(ring, g)
	}
	return append(ring, ring[0]), nil
}

// RadialError is the worst-case inward deviation, as a fraction of the
// radius, of a regular polygon with the given vertex count.
func RadialError(segments int) float64 {
	if segments < 3 {
		return 1
	}
	return 1 - math.Cos(math.Pi/float64(segments))
}
