package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Worker struct {
	ID           uuid.UUID `db:"id" gorm:"type:uuid;primaryKey"`
	Username     string    `db:"username" gorm:"uniqueIndex;not null"`
	FullName     string    `db:"full_name"`
	PasswordHash string    `db:"password_hash" gorm:"not null"`
	Role         Role      `db:"role" gorm:"not null;default:USER"`
	DiscordID    *string   `db:"discord_id" gorm:"uniqueIndex"`
	CreatedAt    time.Time `db:"created_at"`
}

func (Worker) TableName() string {
	return "workers"
}

func (w *Worker) IsAdmin() bool {
	return w.Role == RoleAdmin
}

// DisplayName falls back to the username when no full name was recorded.
func (w *Worker) DisplayName() string {
	if w.FullName != "" {
		return w.FullName
	}
	return w.Username
}

func (w *Worker) DiscordIDValue() string {
	if w.DiscordID == nil {
		return ""
	}
	return *w.DiscordID
}

// ErrDuplicateWorker is returned when a username or Discord id is taken.
var ErrDuplicateWorker = errors.New("worker already exists")
