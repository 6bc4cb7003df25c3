package shift

import (
	"context"
	"log/slog"
	"sort"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

// Reconciler turns a worker's flat event history into shifts. It holds no
// state between calls; the logger only reports inconsistencies it heals.
type Reconciler struct {
	Logger *slog.Logger
}

func (r Reconciler) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// FindOpenShift picks the open shift out of a worker's dangling IN events.
// The latest one wins; any others are orphaned and ignored.
func (r Reconciler) FindOpenShift(dangling []*models.ClockEvent) *Shift {
	if len(dangling) == 0 {
		return nil
	}

	sorted := make([]*models.ClockEvent, len(dangling))
	copy(sorted, dangling)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].Before(sorted[i])
	})

	if len(sorted) > 1 {
		ignored := make([]string, 0, len(sorted)-1)
		for _, ev := range sorted[1:] {
			ignored = append(ignored, ev.ID.String())
		}
		r.logger().LogAttrs(context.Background(), slog.LevelWarn, "multiple open clock-in events",
			slog.String("reason", string(ReasonInconsistentState)),
			slog.String("worker_id", sorted[0].WorkerID.String()),
			slog.String("selected_event_id", sorted[0].ID.String()),
			slog.Any("ignored_event_ids", ignored),
		)
	}

	return openShift(sorted[0])
}

// BuildShiftHistory pairs events into shifts, newest first. OUT events
// whose linked IN is not among the pending shifts are dropped. Every IN
// still pending at the end is returned as an open shift.
func (r Reconciler) BuildShiftHistory(events []*models.ClockEvent) []*Shift {
	sorted := make([]*models.ClockEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})

	var built []*Shift
	pending := make(map[uuid.UUID]*Shift)

	for _, ev := range sorted {
		switch ev.Kind {
		case models.KindIn:
			s := openShift(ev)
			built = append(built, s)
			pending[ev.ID] = s
		case models.KindOut:
			var s *Shift
			if ev.LinkedOpenEventID != nil {
				s = pending[*ev.LinkedOpenEventID]
			}
			if s == nil || s.WorkerID != ev.WorkerID || !s.OpenEvent.Before(ev) {
				r.logger().LogAttrs(context.Background(), slog.LevelDebug, "dropping unmatched clock-out event",
					slog.String("reason", string(ReasonOrphanedCloseEvent)),
					slog.String("worker_id", ev.WorkerID.String()),
					slog.String("event_id", ev.ID.String()),
				)
				continue
			}
			s.close(ev)
			delete(pending, s.OpenEvent.ID)
		}
	}

	history := make([]*Shift, len(built))
	for i, s := range built {
		history[len(built)-1-i] = s
	}
	return history
}
