package db

import (
	"context"
	"errors"
	"time"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateWorker inserts a new worker, filling in id, role and creation time
// when they are unset.
func (db *DB) CreateWorker(ctx context.Context, worker *models.Worker) error {
	if worker.ID == uuid.Nil {
		worker.ID = uuid.New()
	}
	if worker.CreatedAt.IsZero() {
		worker.CreatedAt = time.Now().UTC()
	}
	if worker.Role == "" {
		worker.Role = models.RoleUser
	}

	err := db.orm.WithContext(ctx).Create(worker).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrDuplicateWorker
	}
	return err
}

// GetWorker retrieves a worker by id, or nil if none exists
func (db *DB) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	return db.firstWorker(ctx, "id = ?", id)
}

func (db *DB) GetWorkerByUsername(ctx context.Context, username string) (*models.Worker, error) {
	return db.firstWorker(ctx, "lower(username) = lower(?)", username)
}

func (db *DB) GetWorkerByDiscordID(ctx context.Context, discordID string) (*models.Worker, error) {
	return db.firstWorker(ctx, "discord_id = ?", discordID)
}

func (db *DB) firstWorker(ctx context.Context, cond string, args ...any) (*models.Worker, error) {
	worker := &models.Worker{}
	err := db.orm.WithContext(ctx).Where(cond, args...).First(worker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return worker, nil
}

func (db *DB) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	var workers []*models.Worker
	err := db.orm.WithContext(ctx).Order("full_name").Order("username").Find(&workers).Error
	return workers, err
}

func (db *DB) CountWorkers(ctx context.Context) (int64, error) {
	var count int64
	err := db.orm.WithContext(ctx).Model(&models.Worker{}).Count(&count).Error
	return count, err
}

func (db *DB) WorkerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := db.orm.WithContext(ctx).Model(&models.Worker{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
