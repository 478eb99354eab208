package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/saferoute/internal/adapters/nats"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to incident feeds.
// With lat, lon and radius set only incidents within radius meters are
// relayed.
type wsMessage struct {
	Action string   `json:"action"` // "subscribe" | "unsubscribe"
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Radius float64  `json:"radius,omitempty"`
}

// nearFilter is nil when the client wants every incident.
type nearFilter struct {
	center domain.GeoPoint
	radius float64
}

func (f *nearFilter) accepts(data []byte) bool {
	if f == nil {
		return true
	}
	var inc domain.Incident
	if err := json.Unmarshal(data, &inc); err != nil {
		return false
	}
	return geospatial.Haversine(f.center.Lat, f.center.Lon, inc.Location.Lat, inc.Location.Lon) <= f.radius
}

func (m wsMessage) filter() (*nearFilter, error) {
	if m.Lat == nil || m.Lon == nil {
		return nil, nil
	}
	center := domain.GeoPoint{Lat: *m.Lat, Lon: *m.Lon}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	radius := m.Radius
	if radius <= 0 {
		radius = 1000
	}
	return &nearFilter{center: center, radius: radius}, nil
}

// WebSocketHandler relays incident reports published on NATS to connected
// clients. Every client starts subscribed to all incidents; sending
// {"action":"subscribe","lat":33.68,"lon":-117.83,"radius":2000} narrows the
// feed, {"action":"unsubscribe"} stops it.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var sub *nats.Subscription
		subscribe := func(f *nearFilter) error {
			if sub != nil {
				_ = sub.Unsubscribe()
			}
			s, err := nc.Subscribe(natsadapter.SubjectIncidents, func(msg *nats.Msg) {
				if f.accepts(msg.Data) {
					_ = writeJSON(json.RawMessage(msg.Data))
				}
			})
			if err != nil {
				return err
			}
			sub = s
			return nil
		}

		if err := subscribe(nil); err != nil {
			log.Error("ws subscribe failed", "error", err)
			return
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				f, err := m.filter()
				if err != nil {
					_ = writeJSON(map[string]string{"error": err.Error()})
					continue
				}
				if err := subscribe(f); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": natsadapter.SubjectIncidents})

			case "unsubscribe":
				if sub == nil {
					_ = writeJSON(map[string]string{"error": "not subscribed"})
					continue
				}
				_ = sub.Unsubscribe()
				sub = nil
				_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": natsadapter.SubjectIncidents})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		if sub != nil {
			_ = sub.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
