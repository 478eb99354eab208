package geospatial

import (
	"errors"
	"fmt"
	"strings"

	UTM "github.com/im7mortal/UTM"
	"github.com/paulmach/orb"
)

// ErrOutOfRange is returned when a point cannot be expressed in a frame.
var ErrOutOfRange = errors.New("point outside projection range")

// Frame is a planar reference frame whose units are meters.
// Forward maps lon/lat degrees to x/y; Inverse maps back.
type Frame interface {
	Forward(p orb.Point) (orb.Point, error)
	Inverse(p orb.Point) (orb.Point, error)
	String() string
}

// FrameSelector picks the frame used to buffer around a given center.
type FrameSelector interface {
	FrameFor(center orb.Point) (Frame, error)
}

// UTMZone is a single Universal Transverse Mercator zone on WGS 84.
// Used as a FrameSelector it accepts only points that fall inside the zone.
type UTMZone struct {
	Number int
	North  bool
}

// EPSG returns the EPSG code of the zone (326xx north, 327xx south).
func (z UTMZone) EPSG() int {
	if z.North {
		return 32600 + z.Number
	}
	return 32700 + z.Number
}

func (z UTMZone) String() string {
	h := "N"
	if !z.North {
		h = "S"
	}
	return fmt.Sprintf("UTM %d%s (EPSG:%d)", z.Number, h, z.EPSG())
}

// Forward projects a lon/lat point to easting/northing.
func (z UTMZone) Forward(p orb.Point) (orb.Point, error) {
	if err := checkLonLat(p); err != nil {
		return orb.Point{}, err
	}
	if (p.Lat() >= 0) != z.North {
		return orb.Point{}, fmt.Errorf("%w: %.5f,%.5f is not in the %s hemisphere of %s",
			ErrOutOfRange, p.Lat(), p.Lon(), hemisphere(z.North), z)
	}
	easting, northing, zone, _, err := UTM.FromLatLon(p.Lat(), p.Lon(), z.North)
	if err != nil {
		return orb.Point{}, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	if zone != z.Number {
		return orb.Point{}, fmt.Errorf("%w: %.5f,%.5f lies in UTM zone %d, frame is %s",
			ErrOutOfRange, p.Lat(), p.Lon(), zone, z)
	}
	return orb.Point{easting, northing}, nil
}

// southFalseNorthing is the northing of the equator in a southern zone.
const southFalseNorthing = 10_000_000

// Inverse converts easting/northing back to lon/lat. Points that cross the
// equator are read in the other hemisphere's false northing.
func (z UTMZone) Inverse(p orb.Point) (orb.Point, error) {
	northing, north := p.Y(), z.North
	switch {
	case north && northing < 0:
		northing, north = northing+southFalseNorthing, false
	case !north && northing >= southFalseNorthing:
		northing, north = northing-southFalseNorthing, true
	}
	lat, lon, err := UTM.ToLatLon(p.X(), northing, z.Number, "", north)
	if err != nil {
		return orb.Point{}, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	return orb.Point{lon, lat}, nil
}

// FrameFor returns the zone itself if center can be projected into it.
func (z UTMZone) FrameFor(center orb.Point) (Frame, error) {
	if _, err := z.Forward(center); err != nil {
		return nil, err
	}
	return z, nil
}

// AutoUTM selects the UTM zone containing each center.
type AutoUTM struct{}

// FrameFor returns the zone and hemisphere of center.
func (AutoUTM) FrameFor(center orb.Point) (Frame, error) {
	if err := checkLonLat(center); err != nil {
		return nil, err
	}
	north := center.Lat() >= 0
	_, _, zone, _, err := UTM.FromLatLon(center.Lat(), center.Lon(), north)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	return UTMZone{Number: zone, North: north}, nil
}

// NewFrameSelector builds a selector from configuration.
// mode "fixed" pins every buffer to one zone; "auto" picks the zone per point.
func NewFrameSelector(mode string, zone int, north bool) (FrameSelector, error) {
	switch strings.ToLower(mode) {
	case "", "fixed":
		if zone < 1 || zone > 60 {
			return nil, fmt.Errorf("utm zone must be 1-60, got %d", zone)
		}
		return UTMZone{Number: zone, North: north}, nil
	case "auto":
		return AutoUTM{}, nil
	default:
		return nil, fmt.Errorf("unknown projection mode %q (want fixed or auto)", mode)
	}
}

func checkLonLat(p orb.Point) error {
	if p.Lat() < -90 || p.Lat() > 90 || p.Lon() < -180 || p.Lon() > 180 {
		return fmt.Errorf("%w: invalid coordinate %.5f,%.5f", ErrOutOfRange, p.Lat(), p.Lon())
	}
	return nil
}

func hemisphere(north bool) string {
	if north {
		return "northern"
	}
	return "southern"
}
