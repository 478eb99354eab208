package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// RouteRequest is the body of POST /v1/route. Each end is an address or a
// "lat,lng" literal.
type RouteRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RouteResponse is a computed safe route. Coordinates of the endpoints are
// [lon, lat]; paths are [lat, lon] pairs ready for map clients.
type RouteResponse struct {
	StartCoords        [2]float64      `json:"start_coords"`
	EndCoords          [2]float64      `json:"end_coords"`
	RouteCoords        []domain.LatLng `json:"route_coords"`
	WalkCoords         []domain.LatLng `json:"walk_coords"`
	DistCar            float64         `json:"dist_car"`
	DurCar             float64         `json:"dur_car"`
	DistWalk           float64         `json:"dist_walk"`
	DurWalk            float64         `json:"dur_walk"`
	AvoidanceApplied   bool            `json:"avoidance_applied"`
	AvoidanceRejection string          `json:"avoidance_rejection,omitempty"`
}

// NewRouteResponse renders a SafeRoute for clients.
func NewRouteResponse(r *domain.SafeRoute) RouteResponse {
	return RouteResponse{
		StartCoords:        r.Start.LonLat(),
		EndCoords:          r.End.LonLat(),
		RouteCoords:        domain.ToLatLngPath(r.Car.Path),
		WalkCoords:         domain.ToLatLngPath(r.Walk.Path),
		DistCar:            r.Car.Distance,
		DurCar:             r.Car.Duration,
		DistWalk:           r.Walk.Distance,
		DurWalk:            r.Walk.Duration,
		AvoidanceApplied:   r.AvoidanceApplied,
		AvoidanceRejection: r.AvoidanceRejection,
	}
}

// legacyRouteResponse is the pre-v1 body, without the walking path or the
// avoidance fields.
type legacyRouteResponse struct {
	StartCoords [2]float64      `json:"start_coords"`
	EndCoords   [2]float64      `json:"end_coords"`
	RouteCoords []domain.LatLng `json:"route_coords"`
	DistCar     float64         `json:"dist_car"`
	DurCar      float64         `json:"dur_car"`
	DistWalk    float64         `json:"dist_walk"`
	DurWalk     float64         `json:"dur_walk"`
}

// ReportIncidentRequest is the body of POST /v1/incidents.
type ReportIncidentRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (r ReportIncidentRequest) location() (domain.GeoPoint, bool) {
	if r.Lat == nil || r.Lng == nil {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: *r.Lat, Lon: *r.Lng}, true
}

// PlanRouteHandler computes the driving and walking routes between two places.
func PlanRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		route, err := deps.Routes.Plan(c.UserContext(), req.Start, req.End)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(NewRouteResponse(route))
	}
}

// LegacyRouteHandler serves POST /get_route with the original body shape.
func LegacyRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RouteRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		route, err := deps.Routes.Plan(c.UserContext(), req.Start, req.End)
		if err != nil {
			return legacyError(c, err)
		}
		full := NewRouteResponse(route)
		return c.JSON(legacyRouteResponse{
			StartCoords: full.StartCoords,
			EndCoords:   full.EndCoords,
			RouteCoords: full.RouteCoords,
			DistCar:     full.DistCar,
			DurCar:      full.DurCar,
			DistWalk:    full.DistWalk,
			DurWalk:     full.DurWalk,
		})
	}
}

// ReportIncidentHandler records an incident at the given coordinates.
func ReportIncidentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ReportIncidentRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		loc, ok := req.location()
		if !ok {
			return errBadRequest(c, "Missing coordinates")
		}

		incident, err := deps.recorder().Record(c.UserContext(), loc)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(incident)
	}
}

// LegacyReportIncidentHandler serves POST /report_incident.
func LegacyReportIncidentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ReportIncidentRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		loc, ok := req.location()
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing coordinates"})
		}

		if _, err := deps.recorder().Record(c.UserContext(), loc); err != nil {
			return legacyError(c, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// ListIncidentsHandler returns reported incidents, newest first.
func ListIncidentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 50, 500)

		items, total, err := deps.Incidents.List(c.UserContext(), offset, limit)
		if err != nil {
			return errDomain(c, err)
		}
		if items == nil {
			items = []domain.Incident{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// UnsafeZonesHandler returns the buffered unsafe zones as a GeoJSON
// FeatureCollection. With lat, lon and radius (meters) only zones centered
// within radius of the point are returned.
func UnsafeZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var zones []domain.BufferedZone
		if c.Query("lat") != "" || c.Query("lon") != "" {
			center := domain.GeoPoint{Lat: c.QueryFloat("lat", 0), Lon: c.QueryFloat("lon", 0)}
			if err := center.Validate(); err != nil {
				return errBadRequest(c, err.Error())
			}
			radius := c.QueryFloat("radius", 1000)
			if radius <= 0 || radius > 50000 {
				return errBadRequest(c, "radius must be between 0 and 50000 meters")
			}
			zones = deps.Avoidance.ZonesNear(center, radius)
		} else {
			zones = deps.Avoidance.Region().Zones
		}

		body, err := ZonesFeatureCollection(zones).MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	}
}

// ZonesFeatureCollection converts buffered zones to polygon features.
func ZonesFeatureCollection(zones []domain.BufferedZone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		ring := make(orb.Ring, len(z.Ring))
		for i, p := range z.Ring {
			ring[i] = orb.Point{p.Lon, p.Lat}
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["center"] = []float64{z.Center.Lon, z.Center.Lat}
		f.Properties["radius_m"] = z.Radius
		if z.Label != "" {
			f.Properties["label"] = z.Label
		}
		fc.Append(f)
	}
	return fc
}
