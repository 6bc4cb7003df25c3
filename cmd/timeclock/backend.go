package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"timeclock/internal/api"
	"timeclock/internal/bot"
	"timeclock/internal/config"
	"timeclock/internal/db"
	"timeclock/internal/db/memdb"
	"timeclock/internal/db/models"
	"timeclock/internal/media"
	"timeclock/internal/shift"
)

// backend is everything the commands need from a storage driver.
type backend interface {
	shift.Store
	shift.WorkerLookup
	shift.NoteStore
	shift.AttachmentIndex
	media.Recorder
	api.WorkerDirectory
	bot.Directory
	Close()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Println("Using in-memory store; data is lost on exit")
		mem := memdb.New()
		admin, err := seedAdmin(ctx, mem, cfg.Auth.BootstrapAdmin)
		if err != nil {
			return nil, err
		}
		log.Printf("Seeded admin %s (%s)", admin.Username, admin.ID)
		return mem, nil
	case config.DriverPostgres:
		database, err := db.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return database, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// seedAdmin creates the configured admin account so an empty directory can
// still be logged into.
func seedAdmin(ctx context.Context, dir api.WorkerDirectory, a config.BootstrapAdmin) (*models.Worker, error) {
	admin, err := buildWorker(a.Username, a.Password, a.FullName, string(models.RoleAdmin), "")
	if err != nil {
		return nil, fmt.Errorf("invalid bootstrap admin: %w", err)
	}
	if err := dir.CreateWorker(ctx, admin); err != nil {
		return nil, fmt.Errorf("error creating bootstrap admin: %w", err)
	}
	return admin, nil
}

func newLogger(cfg config.Log) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
