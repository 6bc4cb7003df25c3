// Package media writes clock-event photos and videos to local disk.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

var ErrEmptyBlob = errors.New("empty media blob")

// Recorder persists the media row once the blob is on disk.
type Recorder interface {
	RecordMedia(ctx context.Context, media *models.Media) error
}

// FileStore saves each blob as <uuid>.<ext> under Dir and serves it under
// URLPrefix.
type FileStore struct {
	dir       string
	urlPrefix string
	recorder  Recorder
}

func NewFileStore(dir, urlPrefix string, recorder Recorder) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload dir: %w", err)
	}
	return &FileStore{dir: dir, urlPrefix: urlPrefix, recorder: recorder}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Store(ctx context.Context, eventID uuid.UUID, blob []byte, kind models.MediaKind, name string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("invalid media kind %q", kind)
	}
	if len(blob) == 0 {
		return "", ErrEmptyBlob
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New()
	filename := id.String() + "." + kind.Extension()
	full := filepath.Join(s.dir, filename)
	if err := os.WriteFile(full, blob, 0o644); err != nil {
		return "", fmt.Errorf("error writing media file: %w", err)
	}

	m := &models.Media{
		ID:           id,
		EventID:      eventID,
		Kind:         kind,
		URI:          path.Join(s.urlPrefix, filename),
		OriginalName: name,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.recorder.RecordMedia(ctx, m); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("error recording media: %w", err)
	}
	return m.URI, nil
}

// DecodeDataURL accepts either a bare base64 string or a data URL such as
// "data:image/jpeg;base64,....".
func DecodeDataURL(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyBlob
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("error decoding media: %w", err)
	}
	return data, nil
}
