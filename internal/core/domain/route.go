package domain

// TravelMode selects the routing profile.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
)

// UnsafeZone marks the center of a reported unsafe incident.
// The buffer radius is configured globally, not per zone.
type UnsafeZone struct {
	Center GeoPoint `json:"center"`
	Label  string   `json:"label,omitempty"`
}

// BufferedZone is a closed ring approximating every point within Radius
// meters of Center. Ring[0] == Ring[len(Ring)-1].
type BufferedZone struct {
	Center GeoPoint   `json:"center"`
	Label  string     `json:"label,omitempty"`
	Radius float64    `json:"radius_m"`
	Ring   []GeoPoint `json:"ring"`
}

// AvoidanceRegion is the collection of zones submitted to the routing
// provider. Overlapping zones are not merged.
type AvoidanceRegion struct {
	Zones []BufferedZone `json:"zones"`
}

// IsEmpty reports whether the region constrains nothing.
func (r AvoidanceRegion) IsEmpty() bool {
	return len(r.Zones) == 0
}

// RouteRequest is a single query to the routing provider.
// Avoid is nil when the route is unconstrained.
type RouteRequest struct {
	Start GeoPoint
	End   GeoPoint
	Mode  TravelMode
	Avoid *AvoidanceRegion
}

// RouteCandidate is one route proposed by the provider.
type RouteCandidate struct {
	Distance float64 // meters
	Duration float64 // seconds
	Geometry string  // encoded polyline
}

// Rejection is the provider's structured refusal of a request, typically
// because it cannot honor the avoidance constraint.
type Rejection struct {
	Status  int
	Code    int
	Message string
}

// RouteAttempt is the outcome of a provider call that did not fail outright:
// either Rejection is set, or Candidates holds zero or more routes.
type RouteAttempt struct {
	Candidates []RouteCandidate
	Rejection  *Rejection
}

// RouteResult is a normalized route for one travel mode.
type RouteResult struct {
	Path     []GeoPoint `json:"-"`
	Distance float64    `json:"distance"` // meters
	Duration float64    `json:"duration"` // seconds
}

// SafeRoute is the combined driving + walking answer for one request.
type SafeRoute struct {
	Start              GeoPoint    `json:"start"`
	End                GeoPoint    `json:"end"`
	Car                RouteResult `json:"car"`
	Walk               RouteResult `json:"walk"`
	AvoidanceApplied   bool        `json:"avoidance_applied"`
	AvoidanceRejection string      `json:"avoidance_rejection,omitempty"`
}
