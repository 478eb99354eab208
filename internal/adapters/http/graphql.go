package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

func pairs(path []domain.LatLng) [][]float64 {
	out := make([][]float64, len(path))
	for i, p := range path {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	safeRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "SafeRoute",
		Description: "Driving route around unsafe zones plus a walking route. Paths are [lat, lon] pairs.",
		Fields: graphql.Fields{
			"start_coords":        &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"end_coords":          &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"route_coords":        &graphql.Field{Type: graphql.NewList(graphql.NewList(graphql.Float))},
			"walk_coords":         &graphql.Field{Type: graphql.NewList(graphql.NewList(graphql.Float))},
			"dist_car":            &graphql.Field{Type: graphql.Float},
			"dur_car":             &graphql.Field{Type: graphql.Float},
			"dist_walk":           &graphql.Field{Type: graphql.Float},
			"dur_walk":            &graphql.Field{Type: graphql.Float},
			"avoidance_applied":   &graphql.Field{Type: graphql.Boolean},
			"avoidance_rejection": &graphql.Field{Type: graphql.String},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UnsafeZone",
		Fields: graphql.Fields{
			"label":    &graphql.Field{Type: graphql.String},
			"center":   &graphql.Field{Type: geoPointType},
			"radius_m": &graphql.Field{Type: graphql.Float},
			"ring":     &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	incidentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Incident",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"reported_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"route": &graphql.Field{
				Type:        safeRouteType,
				Description: "Plan a route between two addresses or lat,lng literals",
				Args: graphql.FieldConfigArgument{
					"start": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"end":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := deps.Routes.Plan(p.Context, p.Args["start"].(string), p.Args["end"].(string))
					if err != nil {
						return nil, err
					}
					r := NewRouteResponse(route)
					return map[string]interface{}{
						"start_coords":        r.StartCoords[:],
						"end_coords":          r.EndCoords[:],
						"route_coords":        pairs(r.RouteCoords),
						"walk_coords":         pairs(r.WalkCoords),
						"dist_car":            r.DistCar,
						"dur_car":             r.DurCar,
						"dist_walk":           r.DistWalk,
						"dur_walk":            r.DurWalk,
						"avoidance_applied":   r.AvoidanceApplied,
						"avoidance_rejection": r.AvoidanceRejection,
					}, nil
				},
			},
			"unsafeZones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "Buffered unsafe zones, optionally only those near a point",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":    &graphql.ArgumentConfig{Type: graphql.Float},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, hasLat := p.Args["lat"].(float64)
					lon, hasLon := p.Args["lon"].(float64)
					if !hasLat || !hasLon {
						return deps.Avoidance.Region().Zones, nil
					}
					center := domain.GeoPoint{Lat: lat, Lon: lon}
					if err := center.Validate(); err != nil {
						return nil, domain.InvalidInput(err.Error())
					}
					return deps.Avoidance.ZonesNear(center, p.Args["radius"].(float64)), nil
				},
			},
			"incidents": &graphql.Field{
				Type:        graphql.NewList(incidentType),
				Description: "Reported incidents, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					items, _, err := deps.Incidents.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return items, err
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"reportIncident": &graphql.Field{
				Type:        incidentType,
				Description: "Report an unsafe location",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lng"].(float64)}
					return deps.recorder().Record(p.Context, loc)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
