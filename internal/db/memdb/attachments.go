package memdb

import (
	"context"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

func (db *DB) AddActivity(ctx context.Context, activity *models.Activity) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := *activity
	db.activities = append(db.activities, &c)
	return nil
}

func (db *DB) RecordMedia(ctx context.Context, media *models.Media) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := *media
	db.media = append(db.media, &c)
	return nil
}

func (db *DB) ListActivities(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]*models.Activity, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	wanted := idSet(eventIDs)
	out := make(map[uuid.UUID][]*models.Activity)
	for _, a := range db.activities {
		if wanted[a.EventID] {
			c := *a
			out[a.EventID] = append(out[a.EventID], &c)
		}
	}
	return out, nil
}

func (db *DB) ListMedia(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]*models.Media, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	wanted := idSet(eventIDs)
	out := make(map[uuid.UUID][]*models.Media)
	for _, m := range db.media {
		if wanted[m.EventID] {
			c := *m
			out[m.EventID] = append(out[m.EventID], &c)
		}
	}
	return out, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
