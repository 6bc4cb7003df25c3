package db

import (
	"context"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AddActivity stores a note against the shift's opening event.
func (db *DB) AddActivity(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (id, event_id, description, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := db.Exec(ctx, query,
		activity.ID.String(),
		activity.EventID.String(),
		activity.Description,
		activity.CreatedAt,
	)
	return err
}

func (db *DB) RecordMedia(ctx context.Context, media *models.Media) error {
	query := `
		INSERT INTO media (id, event_id, kind, uri, original_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := db.Exec(ctx, query,
		media.ID.String(),
		media.EventID.String(),
		string(media.Kind),
		media.URI,
		media.OriginalName,
		media.CreatedAt,
	)
	return err
}

func (db *DB) ListActivities(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]*models.Activity, error) {
	out := make(map[uuid.UUID][]*models.Activity)
	if len(eventIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT id, event_id, description, created_at
		FROM activities
		WHERE event_id = ANY($1::uuid[])
		ORDER BY created_at`

	rows, err := db.Query(ctx, query, idArray(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.EventID, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		out[a.EventID] = append(out[a.EventID], a)
	}
	return out, rows.Err()
}

func (db *DB) ListMedia(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]*models.Media, error) {
	out := make(map[uuid.UUID][]*models.Media)
	if len(eventIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT id, event_id, kind, uri, original_name, created_at
		FROM media
		WHERE event_id = ANY($1::uuid[])
		ORDER BY created_at`

	rows, err := db.Query(ctx, query, idArray(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m := &models.Media{}
		var kind string
		if err := rows.Scan(&m.ID, &m.EventID, &kind, &m.URI, &m.OriginalName, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Kind = models.MediaKind(kind)
		out[m.EventID] = append(out[m.EventID], m)
	}
	return out, rows.Err()
}

func idArray(ids []uuid.UUID) pq.StringArray {
	arr := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, id.String())
	}
	return arr
}
