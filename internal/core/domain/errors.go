package domain

import "errors"

// ErrorKind is the stable, machine-readable class of a failure.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "invalid_input"
	KindGeocodingFailure     ErrorKind = "geocoding_failure"
	KindNoMatch              ErrorKind = "no_match"
	KindProjectionOutOfRange ErrorKind = "projection_out_of_range"
	KindRoutingFailure       ErrorKind = "routing_failure"
	KindNoRouteFound         ErrorKind = "no_route_found"
)

// Error is a classified failure with a message fit for end users.
// Mode is set on routing errors so driving and walking failures can be told apart.
type Error struct {
	Kind    ErrorKind
	Mode    TravelMode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind, and by mode when the sentinel names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Mode == "" || t.Mode == e.Mode
}

var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrGeocodingFailure     = &Error{Kind: KindGeocodingFailure}
	ErrNoMatch              = &Error{Kind: KindNoMatch}
	ErrProjectionOutOfRange = &Error{Kind: KindProjectionOutOfRange}
	ErrRoutingFailure       = &Error{Kind: KindRoutingFailure}
	ErrNoRouteFound         = &Error{Kind: KindNoRouteFound}
	ErrWalkingRouteFailure  = &Error{Kind: KindRoutingFailure, Mode: ModeWalking}
	ErrDrivingRouteFailure  = &Error{Kind: KindRoutingFailure, Mode: ModeDriving}
	ErrWalkingRouteNotFound = &Error{Kind: KindNoRouteFound, Mode: ModeWalking}
	ErrDrivingRouteNotFound = &Error{Kind: KindNoRouteFound, Mode: ModeDriving}
)

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// InvalidInput builds an invalid_input error.
func InvalidInput(msg string) error { return newError(KindInvalidInput, msg, nil) }

// GeocodingFailure wraps a geocoder error.
func GeocodingFailure(cause error) error {
	return newError(KindGeocodingFailure, "Geocoding failed: "+cause.Error(), cause)
}

// NoMatch reports an address the geocoder could not place.
func NoMatch(msg string) error { return newError(KindNoMatch, msg, nil) }

// ProjectionOutOfRange wraps a projection error for a given point.
func ProjectionOutOfRange(msg string, cause error) error {
	return newError(KindProjectionOutOfRange, msg, cause)
}

// UnexpectedPrefix starts the message of a routing failure that was not a
// provider answer, such as a transport error or an undecodable geometry.
const UnexpectedPrefix = "Unexpected: "

// RoutingFailure builds a routing_failure for mode.
func RoutingFailure(mode TravelMode, msg string, cause error) error {
	return &Error{Kind: KindRoutingFailure, Mode: mode, Message: msg, Err: cause}
}

// NoRouteFound reports a provider answer without candidates for mode.
func NoRouteFound(mode TravelMode, msg string) error {
	return &Error{Kind: KindNoRouteFound, Mode: mode, Message: msg}
}
