package telemetry

// Span attribute keys shared by the routing code paths.
const (
	AttrTravelMode     = "saferoute.travel_mode"
	AttrAvoidZones     = "saferoute.avoid.zones"
	AttrAvoidApplied   = "saferoute.avoid.applied"
	AttrRejection      = "saferoute.avoid.rejection"
	AttrCandidateCount = "saferoute.route.candidates"
)
