package shift

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

// Service is the read side used by the live views and the history views.
// Every call re-derives shift state from the store.
type Service struct {
	store      Store
	index      AttachmentIndex
	reconciler Reconciler
}

// NewService builds the query surface. index may be nil, in which case
// shifts carry no notes or media.
func NewService(store Store, index AttachmentIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		index:      index,
		reconciler: Reconciler{Logger: logger},
	}
}

// GetCurrentOpenShift returns nil when the worker is not on shift.
func (s *Service) GetCurrentOpenShift(ctx context.Context, workerID uuid.UUID) (*Shift, error) {
	dangling, err := s.store.FindDanglingInEvents(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("error finding open shift: %w", err)
	}
	open := s.reconciler.FindOpenShift(dangling)
	if open == nil {
		return nil, nil
	}
	if err := s.attach(ctx, []*Shift{open}); err != nil {
		return nil, err
	}
	return open, nil
}

// GetAllCurrentlyOpenShifts returns one open shift per worker on duty,
// most recent clock-in first.
func (s *Service) GetAllCurrentlyOpenShifts(ctx context.Context) ([]*Shift, error) {
	dangling, err := s.store.FindAllDanglingInEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error finding open shifts: %w", err)
	}

	byWorker := make(map[uuid.UUID][]*models.ClockEvent)
	var order []uuid.UUID
	for _, ev := range dangling {
		if _, ok := byWorker[ev.WorkerID]; !ok {
			order = append(order, ev.WorkerID)
		}
		byWorker[ev.WorkerID] = append(byWorker[ev.WorkerID], ev)
	}

	open := make([]*Shift, 0, len(order))
	for _, workerID := range order {
		if sh := s.reconciler.FindOpenShift(byWorker[workerID]); sh != nil {
			open = append(open, sh)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[j].OpenEvent.Before(open[i].OpenEvent)
	})

	if err := s.attach(ctx, open); err != nil {
		return nil, err
	}
	return open, nil
}

// GetShiftHistory pairs the worker's events within r, newest shift first.
func (s *Service) GetShiftHistory(ctx context.Context, workerID uuid.UUID, r DateRange) ([]*Shift, error) {
	events, err := s.store.QueryByWorker(ctx, workerID, r)
	if err != nil {
		return nil, fmt.Errorf("error querying clock events: %w", err)
	}
	history := s.reconciler.BuildShiftHistory(events)
	if err := s.attach(ctx, history); err != nil {
		return nil, err
	}
	return history, nil
}

// GetShift returns the worker's shift opened by openEventID.
func (s *Service) GetShift(ctx context.Context, workerID, openEventID uuid.UUID) (*Shift, error) {
	events, err := s.store.QueryByWorker(ctx, workerID, AllTime)
	if err != nil {
		return nil, fmt.Errorf("error querying clock events: %w", err)
	}
	for _, sh := range s.reconciler.BuildShiftHistory(events) {
		if sh.ID() == openEventID {
			if err := s.attach(ctx, []*Shift{sh}); err != nil {
				return nil, err
			}
			return sh, nil
		}
	}
	return nil, ErrShiftNotFound
}

func (s *Service) attach(ctx context.Context, shifts []*Shift) error {
	if s.index == nil || len(shifts) == 0 {
		return nil
	}

	openIDs := make([]uuid.UUID, 0, len(shifts))
	eventIDs := make([]uuid.UUID, 0, 2*len(shifts))
	for _, sh := range shifts {
		openIDs = append(openIDs, sh.OpenEvent.ID)
		eventIDs = append(eventIDs, sh.OpenEvent.ID)
		if sh.CloseEvent != nil {
			eventIDs = append(eventIDs, sh.CloseEvent.ID)
		}
	}

	activities, err := s.index.ListActivities(ctx, openIDs)
	if err != nil {
		return fmt.Errorf("error loading activities: %w", err)
	}
	media, err := s.index.ListMedia(ctx, eventIDs)
	if err != nil {
		return fmt.Errorf("error loading media: %w", err)
	}

	for _, sh := range shifts {
		sh.Activities = activities[sh.OpenEvent.ID]
		sh.EntryMedia = media[sh.OpenEvent.ID]
		if sh.CloseEvent != nil {
			sh.ExitMedia = media[sh.CloseEvent.ID]
		}
	}
	return nil
}
