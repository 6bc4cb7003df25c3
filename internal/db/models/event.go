package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the direction of a clock event.
type Kind string

const (
	KindIn  Kind = "IN"
	KindOut Kind = "OUT"
)

func (k Kind) Valid() bool {
	return k == KindIn || k == KindOut
}

// Location is informational only and never takes part in shift pairing.
type Location struct {
	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`
	Address   *string  `db:"address" json:"address,omitempty"`
}

// ClockEvent is an immutable clock-in or clock-out record.
type ClockEvent struct {
	ID                uuid.UUID  `db:"id"`
	Seq               int64      `db:"seq"`
	WorkerID          uuid.UUID  `db:"worker_id"`
	Kind              Kind       `db:"kind"`
	Timestamp         time.Time  `db:"occurred_at"`
	Location          *Location  `db:"-"`
	LinkedOpenEventID *uuid.UUID `db:"linked_open_event_id"`
}

// ClosesEvent reports whether e is an OUT event linked to the IN event id.
func (e *ClockEvent) ClosesEvent(id uuid.UUID) bool {
	return e.Kind == KindOut && e.LinkedOpenEventID != nil && *e.LinkedOpenEventID == id
}

// Before orders events by timestamp, then by insertion sequence.
func (e *ClockEvent) Before(other *ClockEvent) bool {
	if !e.Timestamp.Equal(other.Timestamp) {
		return e.Timestamp.Before(other.Timestamp)
	}
	return e.Seq < other.Seq
}
