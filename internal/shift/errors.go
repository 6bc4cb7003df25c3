package shift

import (
	"errors"
	"fmt"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

// Reason identifies why a clock action was refused or how stored data was
// found to be inconsistent.
type Reason string

const (
	ReasonAlreadyClockedIn   Reason = "ALREADY_CLOCKED_IN"
	ReasonNotClockedIn       Reason = "NOT_CLOCKED_IN"
	ReasonInconsistentState  Reason = "INCONSISTENT_STATE"
	ReasonOrphanedCloseEvent Reason = "ORPHANED_CLOSE_EVENT"
)

var (
	ErrAlreadyClockedIn = errors.New("worker already has an open shift")
	ErrNotClockedIn     = errors.New("worker has no open shift")
	ErrUnknownWorker    = errors.New("unknown worker")
	ErrInvalidKind      = errors.New("invalid clock event kind")
	ErrShiftNotFound    = errors.New("shift not found")
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrConflict is returned by stores when a concurrent writer won the
	// race for the same worker (unique violation, serialization failure).
	ErrConflict = errors.New("conflicting clock event")
)

// RejectionError is the expected, user-facing outcome of a refused clock
// action. It is returned to the caller and never logged as an error.
type RejectionError struct {
	Reason Reason
	// OpenEventID is set for ALREADY_CLOCKED_IN when the open event is known.
	OpenEventID *uuid.UUID
}

func (e *RejectionError) Error() string {
	if e.OpenEventID != nil {
		return fmt.Sprintf("%s (open event %s)", e.Reason, e.OpenEventID)
	}
	return string(e.Reason)
}

func (e *RejectionError) Is(target error) bool {
	switch target {
	case ErrAlreadyClockedIn:
		return e.Reason == ReasonAlreadyClockedIn
	case ErrNotClockedIn:
		return e.Reason == ReasonNotClockedIn
	}
	return false
}

func alreadyClockedIn(open *models.ClockEvent) *RejectionError {
	rej := &RejectionError{Reason: ReasonAlreadyClockedIn}
	if open != nil {
		id := open.ID
		rej.OpenEventID = &id
	}
	return rej
}

func notClockedIn() *RejectionError {
	return &RejectionError{Reason: ReasonNotClockedIn}
}

// AsRejection unwraps a *RejectionError from err.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
