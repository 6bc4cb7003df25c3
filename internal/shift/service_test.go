package shift_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"timeclock/internal/db/memdb"
	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/google/uuid"
)

func createWorker(t *testing.T, db *memdb.DB, username string) *models.Worker {
	t.Helper()
	w := &models.Worker{Username: username, PasswordHash: "x"}
	if err := db.CreateWorker(context.Background(), w); err != nil {
		t.Fatalf("create worker %s: %v", username, err)
	}
	return w
}

func inEvent(worker uuid.UUID, at time.Time) *models.ClockEvent {
	return &models.ClockEvent{ID: uuid.New(), WorkerID: worker, Kind: models.KindIn, Timestamp: at}
}

func outEvent(open *models.ClockEvent, at time.Time) *models.ClockEvent {
	id := open.ID
	return &models.ClockEvent{ID: uuid.New(), WorkerID: open.WorkerID, Kind: models.KindOut, Timestamp: at, LinkedOpenEventID: &id}
}

func TestGetAllCurrentlyOpenShifts(t *testing.T) {
	db := memdb.New()
	ana := createWorker(t, db, "ana")
	bruno := createWorker(t, db, "bruno")
	carla := createWorker(t, db, "carla")
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	anaIn := inEvent(ana.ID, day.Add(8*time.Hour))
	brunoIn := inEvent(bruno.ID, day.Add(9*time.Hour))
	carlaIn := inEvent(carla.ID, day.Add(7*time.Hour))
	db.Seed(anaIn, brunoIn, carlaIn, outEvent(carlaIn, day.Add(12*time.Hour)))

	svc := shift.NewService(db, db, quiet)
	open, err := svc.GetAllCurrentlyOpenShifts(context.Background())
	if err != nil {
		t.Fatalf("open shifts: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open shifts, got %d", len(open))
	}
	if open[0].OpenEvent.ID != brunoIn.ID || open[1].OpenEvent.ID != anaIn.ID {
		t.Fatalf("expected most recent clock-in first")
	}
}

func TestInconsistentDataResolvesToLatestIn(t *testing.T) {
	db := memdb.New()
	ana := createWorker(t, db, "ana")
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	stale := inEvent(ana.ID, day.Add(8*time.Hour))
	latest := inEvent(ana.ID, day.Add(10*time.Hour))
	db.Seed(stale, latest)

	svc := shift.NewService(db, db, quiet)
	ctx := context.Background()

	open, err := svc.GetCurrentOpenShift(ctx, ana.ID)
	if err != nil || open == nil || open.OpenEvent.ID != latest.ID {
		t.Fatalf("expected latest IN to be the open shift, got %+v (%v)", open, err)
	}
	all, _ := svc.GetAllCurrentlyOpenShifts(ctx)
	if len(all) != 1 || all[0].OpenEvent.ID != latest.ID {
		t.Fatalf("fleet view must show one shift per worker, got %d", len(all))
	}

	// Clocking out closes the selected shift; the stale IN is then the only dangling one.
	guard := shift.NewGuard(shift.GuardConfig{Store: db, Workers: db, Logger: quiet})
	out, err := guard.Submit(ctx, ana.ID, models.KindOut, shift.Payload{})
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if *out.LinkedOpenEventID != latest.ID {
		t.Fatalf("OUT should close the latest IN")
	}
}

func TestGetShiftHistoryRange(t *testing.T) {
	db := memdb.New()
	ana := createWorker(t, db, "ana")
	mar1 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	mar2 := mar1.AddDate(0, 0, 1)
	mar5 := mar1.AddDate(0, 0, 4)

	in1 := inEvent(ana.ID, mar1)
	in2 := inEvent(ana.ID, mar2)
	in5 := inEvent(ana.ID, mar5)
	db.Seed(in1, outEvent(in1, mar1.Add(8*time.Hour)), in2, outEvent(in2, mar2.Add(8*time.Hour)), in5, outEvent(in5, mar5.Add(time.Hour)))

	r, _ := shift.ParseDateRange("2024-03-01", "2024-03-02", time.UTC)
	svc := shift.NewService(db, db, quiet)
	history, err := svc.GetShiftHistory(context.Background(), ana.ID, r)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 shifts in range, got %d", len(history))
	}
	if history[0].OpenEvent.ID != in2.ID || history[1].OpenEvent.ID != in1.ID {
		t.Fatalf("expected newest first")
	}
	for _, s := range history {
		if s.Status != shift.StatusClosed {
			t.Fatalf("expected closed shifts, got %s", s.Status)
		}
	}
}

func TestGetShiftNotFound(t *testing.T) {
	db := memdb.New()
	ana := createWorker(t, db, "ana")
	bruno := createWorker(t, db, "bruno")
	in := inEvent(bruno.ID, time.Now().UTC())
	db.Seed(in)

	svc := shift.NewService(db, db, quiet)
	if _, err := svc.GetShift(context.Background(), ana.ID, in.ID); !errors.Is(err, shift.ErrShiftNotFound) {
		t.Fatalf("another worker's shift must not be visible, got %v", err)
	}
}

func TestShiftsCarryMedia(t *testing.T) {
	db := memdb.New()
	ana := createWorker(t, db, "ana")
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	in := inEvent(ana.ID, day)
	out := outEvent(in, day.Add(time.Hour))
	db.Seed(in, out)
	db.RecordMedia(ctx, &models.Media{ID: uuid.New(), EventID: in.ID, Kind: models.MediaPhoto, URI: "/uploads/a.jpg"})
	db.RecordMedia(ctx, &models.Media{ID: uuid.New(), EventID: out.ID, Kind: models.MediaVideo, URI: "/uploads/b.webm"})

	svc := shift.NewService(db, db, quiet)
	s, err := svc.GetShift(ctx, ana.ID, in.ID)
	if err != nil {
		t.Fatalf("get shift: %v", err)
	}
	if len(s.EntryMedia) != 1 || s.EntryMedia[0].URI != "/uploads/a.jpg" {
		t.Fatalf("unexpected entry media %+v", s.EntryMedia)
	}
	if len(s.ExitMedia) != 1 || s.ExitMedia[0].Kind != models.MediaVideo {
		t.Fatalf("unexpected exit media %+v", s.ExitMedia)
	}
}

func TestHistoryIsStableAcrossCalls(t *testing.T) {
	day := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		events func(worker uuid.UUID) []*models.ClockEvent
		want   int
	}{
		{
			name:   "no events",
			events: func(uuid.UUID) []*models.ClockEvent { return nil },
		},
		{
			name: "closed then open",
			events: func(w uuid.UUID) []*models.ClockEvent {
				in := inEvent(w, day)
				return []*models.ClockEvent{in, outEvent(in, day.Add(9*time.Hour)), inEvent(w, day.AddDate(0, 0, 1))}
			},
			want: 2,
		},
		{
			name: "orphan close and two pending ins",
			events: func(w uuid.UUID) []*models.ClockEvent {
				ghost := inEvent(w, day.Add(-time.Hour))
				return []*models.ClockEvent{inEvent(w, day), inEvent(w, day.Add(time.Hour)), outEvent(ghost, day.Add(2*time.Hour))}
			},
			want: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := memdb.New()
			ana := createWorker(t, db, "ana")
			db.Seed(tc.events(ana.ID)...)
			svc := shift.NewService(db, db, quiet)
			ctx := context.Background()

			first, err := svc.GetShiftHistory(ctx, ana.ID, shift.AllTime)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			second, err := svc.GetShiftHistory(ctx, ana.ID, shift.AllTime)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(first) != tc.want {
				t.Fatalf("expected %d shifts, got %d", tc.want, len(first))
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("history changed between calls on unchanged data")
			}

			events, _ := db.QueryByWorker(ctx, ana.ID, shift.AllTime)
			r := shift.Reconciler{Logger: quiet}
			if !reflect.DeepEqual(r.BuildShiftHistory(events), r.BuildShiftHistory(events)) {
				t.Fatalf("BuildShiftHistory is not deterministic")
			}

			if tc.want == 0 {
				open, err := svc.GetCurrentOpenShift(ctx, ana.ID)
				if err != nil || open != nil {
					t.Fatalf("worker with no events: open=%+v err=%v", open, err)
				}
			}
		})
	}
}
