// Package memdb is an in-process implementation of the event store, the
// worker directory and the attachment index. Nothing survives a restart.
package memdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/google/uuid"
)

type DB struct {
	mu         sync.RWMutex
	seq        int64
	events     []*models.ClockEvent
	workers    map[uuid.UUID]*models.Worker
	activities []*models.Activity
	media      []*models.Media

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func New() *DB {
	return &DB{
		workers: make(map[uuid.UUID]*models.Worker),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (db *DB) Close() {}

// Seed inserts events without any admission checks, for loading legacy or
// inconsistent data.
func (db *DB) Seed(events ...*models.ClockEvent) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, ev := range events {
		db.seq++
		ev.Seq = db.seq
		db.events = append(db.events, cloneEvent(ev))
	}
}

func (db *DB) workerLock(workerID uuid.UUID) *sync.Mutex {
	db.locksMu.Lock()
	defer db.locksMu.Unlock()
	l, ok := db.locks[workerID]
	if !ok {
		l = &sync.Mutex{}
		db.locks[workerID] = l
	}
	return l
}

// InWorkerTx serializes fn per worker. Appends are staged and only become
// visible to other readers when fn returns nil.
func (db *DB) InWorkerTx(ctx context.Context, workerID uuid.UUID, fn func(tx shift.EventStore) error) error {
	l := db.workerLock(workerID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &tx{db: db}
	if err := fn(tx); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	for _, ev := range tx.staged {
		if err := db.checkAppend(db.events, ev); err != nil {
			return err
		}
		db.seq++
		ev.Seq = db.seq
		db.events = append(db.events, cloneEvent(ev))
	}
	return nil
}

// Append writes a single event outside of any worker transaction.
func (db *DB) Append(ctx context.Context, event *models.ClockEvent) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.checkAppend(db.events, event); err != nil {
		return err
	}
	db.seq++
	event.Seq = db.seq
	db.events = append(db.events, cloneEvent(event))
	return nil
}

func (db *DB) QueryByWorker(ctx context.Context, workerID uuid.UUID, r shift.DateRange) ([]*models.ClockEvent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return queryByWorker(db.events, workerID, r), nil
}

func (db *DB) FindDanglingInEvents(ctx context.Context, workerID uuid.UUID) ([]*models.ClockEvent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return dangling(db.events, func(ev *models.ClockEvent) bool { return ev.WorkerID == workerID }), nil
}

func (db *DB) FindAllDanglingInEvents(ctx context.Context, workerIDs ...uuid.UUID) ([]*models.ClockEvent, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(workerIDs))
	for _, id := range workerIDs {
		wanted[id] = true
	}
	events := dangling(db.events, func(ev *models.ClockEvent) bool {
		return len(wanted) == 0 || wanted[ev.WorkerID]
	})
	sort.SliceStable(events, func(i, j int) bool {
		return events[j].Before(events[i])
	})
	return events, nil
}

// checkAppend mirrors the constraints of the SQL schema.
func (db *DB) checkAppend(existing []*models.ClockEvent, ev *models.ClockEvent) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", ev.Kind)
	}
	if _, ok := db.workers[ev.WorkerID]; !ok {
		return fmt.Errorf("worker %s does not exist", ev.WorkerID)
	}

	var open *models.ClockEvent
	for _, e := range existing {
		if e.ID == ev.ID {
			return fmt.Errorf("%w: duplicate event id %s", shift.ErrConflict, ev.ID)
		}
		if ev.LinkedOpenEventID != nil {
			if e.ID == *ev.LinkedOpenEventID {
				open = e
			}
			if e.ClosesEvent(*ev.LinkedOpenEventID) {
				return fmt.Errorf("%w: event %s already closed", shift.ErrConflict, *ev.LinkedOpenEventID)
			}
		}
	}

	switch ev.Kind {
	case models.KindIn:
		if ev.LinkedOpenEventID != nil {
			return errors.New("clock-in events cannot link to another event")
		}
	case models.KindOut:
		if ev.LinkedOpenEventID == nil {
			return nil
		}
		if open == nil || open.Kind != models.KindIn || open.WorkerID != ev.WorkerID {
			return fmt.Errorf("linked event %s is not a clock-in of worker %s", *ev.LinkedOpenEventID, ev.WorkerID)
		}
		if !open.Timestamp.Before(ev.Timestamp) {
			return fmt.Errorf("clock-out must be after clock-in %s", open.ID)
		}
	}
	return nil
}

type tx struct {
	db     *DB
	staged []*models.ClockEvent
}

func (t *tx) view() []*models.ClockEvent {
	all := make([]*models.ClockEvent, 0, len(t.db.events)+len(t.staged))
	all = append(all, t.db.events...)
	return append(all, t.staged...)
}

func (t *tx) Append(ctx context.Context, event *models.ClockEvent) error {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	if err := t.db.checkAppend(t.view(), event); err != nil {
		return err
	}
	t.staged = append(t.staged, event)
	return nil
}

func (t *tx) QueryByWorker(ctx context.Context, workerID uuid.UUID, r shift.DateRange) ([]*models.ClockEvent, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	return queryByWorker(t.view(), workerID, r), nil
}

func (t *tx) FindDanglingInEvents(ctx context.Context, workerID uuid.UUID) ([]*models.ClockEvent, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	return dangling(t.view(), func(ev *models.ClockEvent) bool { return ev.WorkerID == workerID }), nil
}

func queryByWorker(events []*models.ClockEvent, workerID uuid.UUID, r shift.DateRange) []*models.ClockEvent {
	var out []*models.ClockEvent
	for _, ev := range events {
		if ev.WorkerID == workerID && r.Contains(ev.Timestamp) {
			out = append(out, cloneEvent(ev))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

func dangling(events []*models.ClockEvent, match func(*models.ClockEvent) bool) []*models.ClockEvent {
	closed := make(map[uuid.UUID]bool)
	for _, ev := range events {
		if ev.Kind == models.KindOut && ev.LinkedOpenEventID != nil {
			closed[*ev.LinkedOpenEventID] = true
		}
	}

	var out []*models.ClockEvent
	for _, ev := range events {
		if ev.Kind == models.KindIn && !closed[ev.ID] && match(ev) {
			out = append(out, cloneEvent(ev))
		}
	}
	return out
}

func cloneEvent(ev *models.ClockEvent) *models.ClockEvent {
	c := *ev
	if ev.LinkedOpenEventID != nil {
		id := *ev.LinkedOpenEventID
		c.LinkedOpenEventID = &id
	}
	if ev.Location != nil {
		loc := *ev.Location
		c.Location = &loc
	}
	return &c
}
