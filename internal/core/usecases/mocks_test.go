package usecases_test

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	mu       sync.Mutex
	calls    []string
	searchFn func(ctx context.Context, text string) ([]domain.GeocodeCandidate, error)
}

func (m *mockGeocoder) Search(ctx context.Context, text string) ([]domain.GeocodeCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, text)
	}
	return nil, nil
}

func (m *mockGeocoder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Mock RoutingProvider ---

type mockProvider struct {
	mu           sync.Mutex
	requests     []domain.RouteRequest
	directionsFn func(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error)
}

func (m *mockProvider) Directions(ctx context.Context, req domain.RouteRequest) (domain.RouteAttempt, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.directionsFn != nil {
		return m.directionsFn(ctx, req)
	}
	return domain.RouteAttempt{}, nil
}

func (m *mockProvider) snapshot() []domain.RouteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RouteRequest(nil), m.requests...)
}

// --- Fake PathCodec ---

// fakeCodec decodes "lat,lon;lat,lon" strings.
type fakeCodec struct{}

func (fakeCodec) Decode(encoded string) ([]domain.GeoPoint, error) {
	var out []domain.GeoPoint
	for _, pair := range strings.Split(encoded, ";") {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ",", 2)
		lat, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, err
		}
		lon, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	return out, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock IncidentRepository ---

type mockIncidentRepo struct {
	insertFn func(ctx context.Context, incident *domain.Incident) error
	listFn   func(ctx context.Context, offset, limit int) ([]domain.Incident, error)
	countFn  func(ctx context.Context) (int, error)
}

func (m *mockIncidentRepo) Insert(ctx context.Context, incident *domain.Incident) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, incident)
	}
	return nil
}

func (m *mockIncidentRepo) List(ctx context.Context, offset, limit int) ([]domain.Incident, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockIncidentRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	publishFn func(ctx context.Context, incident *domain.Incident) error
	published []*domain.Incident
}

func (m *mockPublisher) PublishIncident(ctx context.Context, incident *domain.Incident) error {
	m.published = append(m.published, incident)
	if m.publishFn != nil {
		return m.publishFn(ctx, incident)
	}
	return nil
}
