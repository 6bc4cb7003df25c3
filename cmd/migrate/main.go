package main

import (
	"context"
	"flag"
	"log"
	"os"

	"timeclock/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "migrations/001_initial_schema.sql", "migration to apply")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("Nothing to migrate for driver %q", cfg.Database.Driver)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	migration, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Error reading migration file: %v", err)
	}

	// The schema is one multi-statement script; the simple protocol runs it as-is.
	if _, err := pool.Exec(ctx, string(migration)); err != nil {
		log.Fatalf("Error executing migration: %v", err)
	}

	log.Printf("Migration %s completed successfully", *file)
}
