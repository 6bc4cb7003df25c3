package main

import (
	"context"
	"testing"

	"timeclock/internal/auth"
	"timeclock/internal/config"
	"timeclock/internal/db/models"
)

func TestBuildWorker(t *testing.T) {
	w, err := buildWorker(" ana ", "password123", "Ana Souza", "admin", "998877")
	if err != nil {
		t.Fatalf("build worker: %v", err)
	}
	if w.Username != "ana" || w.Role != models.RoleAdmin || w.DiscordIDValue() != "998877" {
		t.Fatalf("unexpected worker %+v", w)
	}
	if !auth.VerifyPassword("password123", w.PasswordHash) {
		t.Fatalf("password hash does not verify")
	}

	w, err = buildWorker("bruno", "password123", "", "user", "")
	if err != nil {
		t.Fatalf("build worker: %v", err)
	}
	if w.DiscordID != nil {
		t.Fatalf("empty discord id should stay unset")
	}
}

func TestBuildWorkerRejectsBadInput(t *testing.T) {
	if _, err := buildWorker("ana", "password123", "", "owner", ""); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, err := buildWorker("ana", "short", "", "user", ""); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestMemoryBackendSeedsAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Database: config.Database{Driver: config.DriverMemory},
		Auth: config.Auth{BootstrapAdmin: config.BootstrapAdmin{
			Username: "root", Password: "changeme123", FullName: "Site Admin",
		}},
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer store.Close()

	admin, err := store.GetWorkerByUsername(ctx, "root")
	if err != nil || admin == nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if admin.Role != models.RoleAdmin || !auth.VerifyPassword("changeme123", admin.PasswordHash) {
		t.Fatalf("unexpected seeded admin %+v", admin)
	}
	if exists, _ := store.WorkerExists(ctx, admin.ID); !exists {
		t.Fatalf("seeded admin should be able to clock in")
	}
}

func TestMemoryBackendRejectsBadAdmin(t *testing.T) {
	cfg := &config.Config{
		Database: config.Database{Driver: config.DriverMemory},
		Auth:     config.Auth{BootstrapAdmin: config.BootstrapAdmin{Username: "root", Password: "short"}},
	}
	if _, err := openBackend(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for a too-short bootstrap password")
	}
}
