package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// literalPattern matches "lat,lng" with optional sign and decimals.
var literalPattern = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)\s*,\s*([+-]?\d+(?:\.\d+)?)\s*$`)

// LocationInput is either a literal coordinate or free text to geocode.
type LocationInput struct {
	literal *GeoPoint
	text    string
}

// LiteralLocation wraps an already-known coordinate.
func LiteralLocation(p GeoPoint) LocationInput {
	return LocationInput{literal: &p}
}

// TextLocation wraps an address or place name.
func TextLocation(text string) LocationInput {
	return LocationInput{text: text}
}

// ParseLocationInput turns user input into a LocationInput. A "lat,lng"
// string becomes a literal (latitude first, as typed); anything else is text.
func ParseLocationInput(raw string) LocationInput {
	m := literalPattern.FindStringSubmatch(raw)
	if m == nil {
		return TextLocation(strings.TrimSpace(raw))
	}
	// The pattern guarantees both groups parse.
	lat, _ := strconv.ParseFloat(m[1], 64)
	lng, _ := strconv.ParseFloat(m[2], 64)
	return LiteralLocation(GeoPoint{Lat: lat, Lon: lng})
}

// Literal returns the coordinate and true when the input is a literal.
func (in LocationInput) Literal() (GeoPoint, bool) {
	if in.literal == nil {
		return GeoPoint{}, false
	}
	return *in.literal, true
}

// Text returns the free-text query; empty for literals.
func (in LocationInput) Text() string {
	return in.text
}

// IsEmpty reports whether the input carries neither a coordinate nor text.
func (in LocationInput) IsEmpty() bool {
	return in.literal == nil && strings.TrimSpace(in.text) == ""
}

// GeocodeCandidate is one match returned by a geocoding service.
type GeocodeCandidate struct {
	Location GeoPoint `json:"location"`
	Label    string   `json:"label,omitempty"`
}
