package db

import (
	"context"
	"errors"
	"fmt"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const eventColumns = `e.id, e.seq, e.worker_id, e.kind, e.occurred_at,
	e.latitude, e.longitude, e.address, e.linked_open_event_id`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type eventStore struct {
	q querier
}

// InWorkerTx runs fn inside a transaction holding the worker's advisory
// lock, so concurrent clock actions for one worker are serialized.
func (db *DB) InWorkerTx(ctx context.Context, workerID uuid.UUID, fn func(tx shift.EventStore) error) error {
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, workerID.String()); err != nil {
			return fmt.Errorf("error locking worker: %w", err)
		}
		return fn(&eventStore{q: tx})
	})
	return classify(err)
}

func (db *DB) Append(ctx context.Context, event *models.ClockEvent) error {
	return (&eventStore{q: db.Pool}).Append(ctx, event)
}

func (db *DB) QueryByWorker(ctx context.Context, workerID uuid.UUID, r shift.DateRange) ([]*models.ClockEvent, error) {
	return (&eventStore{q: db.Pool}).QueryByWorker(ctx, workerID, r)
}

func (db *DB) FindDanglingInEvents(ctx context.Context, workerID uuid.UUID) ([]*models.ClockEvent, error) {
	return (&eventStore{q: db.Pool}).FindDanglingInEvents(ctx, workerID)
}

// FindAllDanglingInEvents feeds the live fleet view. An empty workerIDs
// matches every worker.
func (db *DB) FindAllDanglingInEvents(ctx context.Context, workerIDs ...uuid.UUID) ([]*models.ClockEvent, error) {
	var ids pq.StringArray
	for _, id := range workerIDs {
		ids = append(ids, id.String())
	}

	query := `
		SELECT ` + eventColumns + `
		FROM clock_events e
		LEFT JOIN clock_events c ON c.linked_open_event_id = e.id
		WHERE e.kind = 'IN'
		AND c.id IS NULL
		AND ($1::uuid[] IS NULL OR e.worker_id = ANY($1::uuid[]))
		ORDER BY e.occurred_at DESC, e.seq DESC`

	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// Append inserts the event and stores the sequence number assigned by the
// database back on it.
func (s *eventStore) Append(ctx context.Context, event *models.ClockEvent) error {
	query := `
		INSERT INTO clock_events (id, worker_id, kind, occurred_at, latitude, longitude, address, linked_open_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`

	var lat, lng *float64
	var addr *string
	if event.Location != nil {
		lat, lng, addr = event.Location.Latitude, event.Location.Longitude, event.Location.Address
	}
	var linked *string
	if event.LinkedOpenEventID != nil {
		id := event.LinkedOpenEventID.String()
		linked = &id
	}

	err := s.q.QueryRow(ctx, query,
		event.ID.String(),
		event.WorkerID.String(),
		string(event.Kind),
		event.Timestamp,
		lat,
		lng,
		addr,
		linked,
	).Scan(&event.Seq)
	return classify(err)
}

func (s *eventStore) QueryByWorker(ctx context.Context, workerID uuid.UUID, r shift.DateRange) ([]*models.ClockEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM clock_events e
		WHERE e.worker_id = $1`
	args := []any{workerID.String()}

	if start, ok := r.Start(); ok {
		args = append(args, start)
		query += fmt.Sprintf(" AND e.occurred_at >= $%d", len(args))
	}
	if end, ok := r.End(); ok {
		args = append(args, end)
		query += fmt.Sprintf(" AND e.occurred_at < $%d", len(args))
	}
	query += " ORDER BY e.occurred_at, e.seq"

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// FindDanglingInEvents is an anti-join over the unique index on
// linked_open_event_id.
func (s *eventStore) FindDanglingInEvents(ctx context.Context, workerID uuid.UUID) ([]*models.ClockEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM clock_events e
		LEFT JOIN clock_events c ON c.linked_open_event_id = e.id
		WHERE e.worker_id = $1
		AND e.kind = 'IN'
		AND c.id IS NULL
		ORDER BY e.occurred_at DESC, e.seq DESC`

	rows, err := s.q.Query(ctx, query, workerID.String())
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*models.ClockEvent, error) {
	defer rows.Close()

	var events []*models.ClockEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*models.ClockEvent, error) {
	ev := &models.ClockEvent{}
	var kind string
	var loc models.Location
	var linked uuid.NullUUID

	err := row.Scan(
		&ev.ID,
		&ev.Seq,
		&ev.WorkerID,
		&kind,
		&ev.Timestamp,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Address,
		&linked,
	)
	if err != nil {
		return nil, err
	}

	ev.Kind = models.Kind(kind)
	ev.Timestamp = ev.Timestamp.UTC()
	if loc.Latitude != nil || loc.Longitude != nil || loc.Address != nil {
		ev.Location = &loc
	}
	if linked.Valid {
		id := linked.UUID
		ev.LinkedOpenEventID = &id
	}
	return ev, nil
}

// classify maps the errors a losing concurrent writer gets to shift.ErrConflict.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01":
			return fmt.Errorf("%w: %s", shift.ErrConflict, pgErr.Message)
		}
	}
	return err
}
