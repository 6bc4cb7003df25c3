package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

const defaultAttachmentTimeout = 30 * time.Second

// MediaUpload is an attachment carried by a clock action.
type MediaUpload struct {
	Kind models.MediaKind
	Data []byte
	Name string
}

// Payload is passed through admission untouched. Activities are stored
// against the shift's opening event; media against the new event.
type Payload struct {
	Location   *models.Location
	Media      []MediaUpload
	Activities []string
}

type GuardConfig struct {
	Store       Store
	Workers     WorkerLookup
	Attachments AttachmentStore
	Notes       NoteStore
	Logger      *slog.Logger
	// Clock defaults to time.Now.
	Clock             func() time.Time
	AttachmentTimeout time.Duration
}

// Guard admits clock actions. It is the only write path for clock events.
type Guard struct {
	store       Store
	workers     WorkerLookup
	attachments AttachmentStore
	notes       NoteStore
	logger      *slog.Logger
	clock       func() time.Time
	timeout     time.Duration
	reconciler  Reconciler
}

func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{
		store:       cfg.Store,
		workers:     cfg.Workers,
		attachments: cfg.Attachments,
		notes:       cfg.Notes,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		timeout:     cfg.AttachmentTimeout,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	if g.timeout <= 0 {
		g.timeout = defaultAttachmentTimeout
	}
	g.reconciler = Reconciler{Logger: g.logger}
	return g
}

// Submit validates a clock action for workerID and appends the event. A
// refused action returns a *RejectionError. Attachments are stored after
// the event is committed and their failures never undo it.
func (g *Guard) Submit(ctx context.Context, workerID uuid.UUID, kind models.Kind, payload Payload) (*models.ClockEvent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	exists, err := g.workers.WorkerExists(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("error looking up worker: %w", err)
	}
	if !exists {
		return nil, ErrUnknownWorker
	}

	var event *models.ClockEvent
	err = g.store.InWorkerTx(ctx, workerID, func(tx EventStore) error {
		dangling, err := tx.FindDanglingInEvents(ctx, workerID)
		if err != nil {
			return fmt.Errorf("error finding open shift: %w", err)
		}

		ev, err := g.admit(workerID, kind, g.reconciler.FindOpenShift(dangling), payload.Location)
		if err != nil {
			return err
		}
		if err := tx.Append(ctx, ev); err != nil {
			return fmt.Errorf("error appending clock event: %w", err)
		}
		event = ev
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			if kind == models.KindIn {
				return nil, alreadyClockedIn(nil)
			}
			return nil, notClockedIn()
		}
		return nil, err
	}

	g.storePayload(ctx, event, payload)
	return event, nil
}

func (g *Guard) admit(workerID uuid.UUID, kind models.Kind, open *Shift, loc *models.Location) (*models.ClockEvent, error) {
	now := g.clock().UTC().Truncate(time.Microsecond)
	ev := &models.ClockEvent{
		ID:        uuid.New(),
		WorkerID:  workerID,
		Kind:      kind,
		Timestamp: now,
		Location:  loc,
	}

	switch kind {
	case models.KindIn:
		if open != nil {
			return nil, alreadyClockedIn(open.OpenEvent)
		}
	case models.KindOut:
		if open == nil {
			return nil, notClockedIn()
		}
		openID := open.OpenEvent.ID
		ev.LinkedOpenEventID = &openID
		if !ev.Timestamp.After(open.OpenEvent.Timestamp) {
			ev.Timestamp = open.OpenEvent.Timestamp.Add(time.Second)
		}
	}
	return ev, nil
}

// storePayload writes notes and media for a committed event. It runs on its
// own deadline so an abandoned request does not cut uploads short.
func (g *Guard) storePayload(ctx context.Context, event *models.ClockEvent, payload Payload) {
	if len(payload.Activities) == 0 && len(payload.Media) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	shiftID := event.ID
	if event.LinkedOpenEventID != nil {
		shiftID = *event.LinkedOpenEventID
	}

	for _, desc := range payload.Activities {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		if g.notes == nil {
			g.logger.Warn("no note store configured, dropping activity", "event_id", event.ID)
			break
		}
		activity := &models.Activity{
			ID:          uuid.New(),
			EventID:     shiftID,
			Description: desc,
			CreatedAt:   g.clock().UTC(),
		}
		if err := g.notes.AddActivity(ctx, activity); err != nil {
			g.logger.Error("error saving activity", "event_id", event.ID, "shift_id", shiftID, "error", err)
		}
	}

	for _, m := range payload.Media {
		if g.attachments == nil {
			g.logger.Warn("no attachment store configured, dropping media", "event_id", event.ID)
			break
		}
		uri, err := g.attachments.Store(ctx, event.ID, m.Data, m.Kind, m.Name)
		if err != nil {
			g.logger.Error("error saving media", "event_id", event.ID, "kind", m.Kind, "error", err)
			continue
		}
		g.logger.Debug("media saved", "event_id", event.ID, "uri", uri)
	}
}
