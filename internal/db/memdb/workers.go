package memdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

func (db *DB) CreateWorker(ctx context.Context, worker *models.Worker) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, w := range db.workers {
		if strings.EqualFold(w.Username, worker.Username) {
			return models.ErrDuplicateWorker
		}
		if w.DiscordID != nil && worker.DiscordID != nil && *w.DiscordID == *worker.DiscordID {
			return models.ErrDuplicateWorker
		}
	}
	if worker.ID == uuid.Nil {
		worker.ID = uuid.New()
	}
	if worker.CreatedAt.IsZero() {
		worker.CreatedAt = time.Now().UTC()
	}
	if worker.Role == "" {
		worker.Role = models.RoleUser
	}
	c := *worker
	db.workers[worker.ID] = &c
	return nil
}

// GetWorker returns nil, nil when the worker does not exist.
func (db *DB) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if w, ok := db.workers[id]; ok {
		c := *w
		return &c, nil
	}
	return nil, nil
}

func (db *DB) GetWorkerByUsername(ctx context.Context, username string) (*models.Worker, error) {
	return db.findWorker(func(w *models.Worker) bool { return strings.EqualFold(w.Username, username) }), nil
}

func (db *DB) GetWorkerByDiscordID(ctx context.Context, discordID string) (*models.Worker, error) {
	return db.findWorker(func(w *models.Worker) bool { return w.DiscordID != nil && *w.DiscordID == discordID }), nil
}

func (db *DB) findWorker(match func(*models.Worker) bool) *models.Worker {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, w := range db.workers {
		if match(w) {
			c := *w
			return &c
		}
	}
	return nil
}

// ListWorkers orders by full name, then username.
func (db *DB) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	workers := make([]*models.Worker, 0, len(db.workers))
	for _, w := range db.workers {
		c := *w
		workers = append(workers, &c)
	}
	sort.Slice(workers, func(i, j int) bool {
		if workers[i].FullName != workers[j].FullName {
			return workers[i].FullName < workers[j].FullName
		}
		return workers[i].Username < workers[j].Username
	})
	return workers, nil
}

func (db *DB) CountWorkers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.workers)), nil
}

func (db *DB) WorkerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.workers[id]
	return ok, nil
}
