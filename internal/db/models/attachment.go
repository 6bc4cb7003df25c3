package models

import (
	"time"

	"github.com/google/uuid"
)

type MediaKind string

const (
	MediaPhoto MediaKind = "PHOTO"
	MediaVideo MediaKind = "VIDEO"
)

func (k MediaKind) Valid() bool {
	return k == MediaPhoto || k == MediaVideo
}

// Extension is the file extension used when the blob is written to disk.
func (k MediaKind) Extension() string {
	if k == MediaVideo {
		return "webm"
	}
	return "jpg"
}

// Activity is a free-text note. EventID always points at the opening IN
// event of the shift, even when the note was written at clock-out.
type Activity struct {
	ID          uuid.UUID `db:"id"`
	EventID     uuid.UUID `db:"event_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type Media struct {
	ID           uuid.UUID `db:"id"`
	EventID      uuid.UUID `db:"event_id"`
	Kind         MediaKind `db:"kind"`
	URI          string    `db:"uri"`
	OriginalName string    `db:"original_name"`
	CreatedAt    time.Time `db:"created_at"`
}
