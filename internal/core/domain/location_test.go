package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

func TestParseLocationInput(t *testing.T) {
	tests := []struct {
		raw     string
		literal bool
		want    domain.GeoPoint
		text    string
	}{
		{raw: "33.7,-117.8", literal: true, want: domain.GeoPoint{Lat: 33.7, Lon: -117.8}},
		{raw: " 34.0522 , -118.2437 ", literal: true, want: domain.GeoPoint{Lat: 34.0522, Lon: -118.2437}},
		{raw: "+1,2", literal: true, want: domain.GeoPoint{Lat: 1, Lon: 2}},
		{raw: "200 N Spring St, Los Angeles", text: "200 N Spring St, Los Angeles"},
		{raw: "33.7, -117.8, 5", text: "33.7, -117.8, 5"},
		{raw: "33.,-117", text: "33.,-117"},
		{raw: "  Irvine  ", text: "Irvine"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in := domain.ParseLocationInput(tt.raw)
			p, ok := in.Literal()
			if ok != tt.literal {
				t.Fatalf("literal = %v, want %v", ok, tt.literal)
			}
			if tt.literal {
				if p != tt.want {
					t.Errorf("point = %+v, want %+v", p, tt.want)
				}
				if in.Text() != "" {
					t.Errorf("literal should carry no text, got %q", in.Text())
				}
				return
			}
			if in.Text() != tt.text {
				t.Errorf("text = %q, want %q", in.Text(), tt.text)
			}
		})
	}
}

func TestLocationInput_IsEmpty(t *testing.T) {
	if !domain.ParseLocationInput("   ").IsEmpty() {
		t.Error("blank input should be empty")
	}
	if domain.ParseLocationInput("0,0").IsEmpty() {
		t.Error("0,0 is a literal, not empty")
	}
	if domain.TextLocation("Anaheim").IsEmpty() {
		t.Error("text input should not be empty")
	}
}

func TestGeoPoint_Validate(t *testing.T) {
	valid := []domain.GeoPoint{{Lat: 90, Lon: 180}, {Lat: -90, Lon: -180}, {Lat: 33.68, Lon: -117.82}}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("%+v: unexpected error %v", p, err)
		}
	}
	invalid := []domain.GeoPoint{{Lat: 90.1}, {Lon: -180.5}, {Lat: -117.8, Lon: 33.7}}
	for _, p := range invalid {
		if err := p.Validate(); err == nil {
			t.Errorf("%+v: expected error", p)
		}
	}
}

func TestToLatLngPath(t *testing.T) {
	path := []domain.GeoPoint{{Lat: 33.1, Lon: -117.1}, {Lat: 33.2, Lon: -117.2}}
	got := domain.ToLatLngPath(path)
	if len(got) != 2 || got[0] != (domain.LatLng{33.1, -117.1}) || got[1] != (domain.LatLng{33.2, -117.2}) {
		t.Errorf("unexpected path %v", got)
	}
	if lonlat := path[0].LonLat(); lonlat != [2]float64{-117.1, 33.1} {
		t.Errorf("LonLat = %v", lonlat)
	}
	if out := domain.ToLatLngPath(nil); out == nil || len(out) != 0 {
		t.Errorf("nil path should give an empty slice, got %v", out)
	}
}

func TestErrorMatching(t *testing.T) {
	walk := domain.RoutingFailure(domain.ModeWalking, "Walking route failed: timeout", nil)
	wrapped := fmt.Errorf("plan: %w", walk)

	if !errors.Is(wrapped, domain.ErrRoutingFailure) {
		t.Error("walking failure should match the generic routing sentinel")
	}
	if !errors.Is(wrapped, domain.ErrWalkingRouteFailure) {
		t.Error("walking failure should match the walking sentinel")
	}
	if errors.Is(wrapped, domain.ErrDrivingRouteFailure) {
		t.Error("walking failure must not match the driving sentinel")
	}
	if errors.Is(wrapped, domain.ErrNoRouteFound) {
		t.Error("kind mismatch should not match")
	}
	if got := domain.KindOf(wrapped); got != domain.KindRoutingFailure {
		t.Errorf("KindOf = %q", got)
	}
	if got := domain.KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf plain error = %q, want empty", got)
	}
	if wrapped.Error() != "plan: Walking route failed: timeout" {
		t.Errorf("message = %q", wrapped.Error())
	}
}
