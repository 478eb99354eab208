package domain

import "time"

// Incident is a user report of an unsafe location.
type Incident struct {
	ID         string    `json:"id"`
	Location   GeoPoint  `json:"location"`
	ReportedAt time.Time `json:"reported_at"`
}
