// Package openrouteservice talks to the openrouteservice directions and
// Pelias geocoding APIs.
package openrouteservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Profiles per travel mode.
const (
	ProfileDriving = "driving-car"
	ProfileWalking = "foot-walking"
)

// Client implements ports.RoutingProvider and ports.Geocoder.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient creates a client for baseURL (e.g. https://api.openrouteservice.org).
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "saferoute",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
}

// Profile maps a travel mode to its openrouteservice profile.
func Profile(mode domain.TravelMode) (string, error) {
	switch mode {
	case domain.ModeDriving:
		return ProfileDriving, nil
	case domain.ModeWalking:
		return ProfileWalking, nil
	default:
		return "", fmt.Errorf("unsupported travel mode %q", mode)
	}
}

type directionsRequest struct {
	Coordinates [][2]float64       `json:"coordinates"`
	Options     *directionsOptions `json:"options,omitempty"`
}

type directionsOptions struct {
	AvoidPolygons *geojson.Geometry `json:"avoid_polygons"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// Directions requests routes for req. A non-2xx answer is returned as a
// Rejection; transport and decoding problems are returned as errors.
func (c *Client) Directions(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
	profile, err := Profile(req.Mode)
	if err != nil {
		return domain.RouteAttempt{}, err
	}

	body := directionsRequest{
		Coordinates: [][2]float64{req.Start.LonLat(), req.End.LonLat()},
	}
	if req.Avoid != nil && !req.Avoid.IsEmpty() {
		body.Options = &directionsOptions{AvoidPolygons: geojson.NewGeometry(AvoidPolygons(*req.Avoid))}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.RouteAttempt{}, fmt.Errorf("encode directions request: %w", err)
	}

	status, respBody, err := c.do(ctx, fasthttp.MethodPost, c.baseURL+"/v2/directions/"+profile+"/json", payload, true)
	if err != nil {
		return domain.RouteAttempt{}, err
	}
	if status < 200 || status > 299 {
		return domain.RouteAttempt{Rejection: parseRejection(status, respBody)}, nil
	}

	var out directionsResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return domain.RouteAttempt{}, fmt.Errorf("decode directions response: %w", err)
	}
	attempt := domain.RouteAttempt{Candidates: make([]domain.RouteCandidate, 0, len(out.Routes))}
	for _, r := range out.Routes {
		attempt.Candidates = append(attempt.Candidates, domain.RouteCandidate{
			Distance: r.Summary.Distance,
			Duration: r.Summary.Duration,
			Geometry: r.Geometry,
		})
	}
	return attempt, nil
}

// Search geocodes free text with Pelias. Features without a point geometry
// are skipped.
func (c *Client) Search(ctx context.Context, text string) ([]domain.GeocodeCandidate, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("text", text)

	status, body, err := c.do(ctx, fasthttp.MethodGet, c.baseURL+"/geocode/search?"+q.Encode(), nil, false)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, errors.New(parseRejection(status, body).Message)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	out := make([]domain.GeocodeCandidate, 0, len(fc.Features))
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		out = append(out, domain.GeocodeCandidate{
			Location: domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()},
			Label:    f.Properties.MustString("label", ""),
		})
	}
	return out, nil
}

// AvoidPolygons converts a region into the MultiPolygon sent as
// avoid_polygons, one polygon per zone in region order.
func AvoidPolygons(region domain.AvoidanceRegion) orb.MultiPolygon {
	mp := make(orb.MultiPolygon, 0, len(region.Zones))
	for _, z := range region.Zones {
		ring := make(orb.Ring, len(z.Ring))
		for i, p := range z.Ring {
			ring[i] = orb.Point{p.Lon, p.Lat}
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}

func (c *Client) do(ctx context.Context, method, uri string, body []byte, auth bool) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json, application/geo+json")
	if auth && c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	if body != nil {
		req.Header.SetContentType("application/json; charset=utf-8")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, fmt.Errorf("openrouteservice %s: %w", method, err)
	}

	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

// parseRejection extracts the provider's message from an error body:
// {"error":{"code":2004,"message":"..."}} or {"error":"..."}.
func parseRejection(status int, body []byte) *domain.Rejection {
	rej := &domain.Rejection{Status: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var structured struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		var plain string
		switch {
		case json.Unmarshal(envelope.Error, &structured) == nil && structured.Message != "":
			rej.Code = structured.Code
			rej.Message = structured.Message
		case json.Unmarshal(envelope.Error, &plain) == nil && plain != "":
			rej.Message = plain
		}
	}
	if rej.Message == "" {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		rej.Message = fmt.Sprintf("%d (%s)", status, text)
	}
	return rej
}
