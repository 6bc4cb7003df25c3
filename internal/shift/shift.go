package shift

import (
	"time"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Shift is derived from an IN event and, once closed, the OUT event that
// links to it. It is never stored.
type Shift struct {
	WorkerID   uuid.UUID
	OpenEvent  *models.ClockEvent
	CloseEvent *models.ClockEvent
	Duration   *time.Duration
	Status     Status

	Activities []*models.Activity
	EntryMedia []*models.Media
	ExitMedia  []*models.Media
}

func openShift(in *models.ClockEvent) *Shift {
	return &Shift{
		WorkerID:  in.WorkerID,
		OpenEvent: in,
		Status:    StatusOpen,
	}
}

func (s *Shift) close(out *models.ClockEvent) {
	d := out.Timestamp.Sub(s.OpenEvent.Timestamp)
	s.CloseEvent = out
	s.Duration = &d
	s.Status = StatusClosed
}

// ID is the id of the opening event, which also keys the shift's notes.
func (s *Shift) ID() uuid.UUID {
	return s.OpenEvent.ID
}

func (s *Shift) IsOpen() bool {
	return s.Status == StatusOpen
}

// DurationSeconds is only defined for closed shifts.
func (s *Shift) DurationSeconds() (int64, bool) {
	if s.Duration == nil {
		return 0, false
	}
	return int64(*s.Duration / time.Second), true
}

// Elapsed is the closed duration, or the time since clock-in for an open shift.
func (s *Shift) Elapsed(now time.Time) time.Duration {
	if s.Duration != nil {
		return *s.Duration
	}
	return now.Sub(s.OpenEvent.Timestamp)
}
