package shift

import (
	"context"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

// EventStore is the append-only record of clock events as seen from inside
// a single worker's transaction.
type EventStore interface {
	// Append persists a new event and assigns its Seq.
	Append(ctx context.Context, event *models.ClockEvent) error
	// QueryByWorker returns the worker's events in r ordered by timestamp
	// ascending, then by insertion order.
	QueryByWorker(ctx context.Context, workerID uuid.UUID, r DateRange) ([]*models.ClockEvent, error)
	// FindDanglingInEvents returns the worker's IN events that no OUT event
	// references.
	FindDanglingInEvents(ctx context.Context, workerID uuid.UUID) ([]*models.ClockEvent, error)
}

// Store is the shared event store.
type Store interface {
	EventStore
	// FindAllDanglingInEvents returns dangling IN events for the given
	// workers, or for every worker when none are given.
	FindAllDanglingInEvents(ctx context.Context, workerIDs ...uuid.UUID) ([]*models.ClockEvent, error)
	// InWorkerTx runs fn serialized against every other InWorkerTx call for
	// the same worker. Writes made through tx are committed only if fn
	// returns nil.
	InWorkerTx(ctx context.Context, workerID uuid.UUID, fn func(tx EventStore) error) error
}

type WorkerLookup interface {
	WorkerExists(ctx context.Context, workerID uuid.UUID) (bool, error)
}

// AttachmentStore persists media blobs for an event and returns their URI.
type AttachmentStore interface {
	Store(ctx context.Context, eventID uuid.UUID, blob []byte, kind models.MediaKind, name string) (string, error)
}

type NoteStore interface {
	AddActivity(ctx context.Context, activity *models.Activity) error
}

// AttachmentIndex reads back notes and media keyed by event id.
type AttachmentIndex interface {
	ListActivities(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]*models.Activity, error)
	ListMedia(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]*models.Media, error)
}
