package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeclock/internal/api"
	"timeclock/internal/auth"
	"timeclock/internal/bot"
	"timeclock/internal/media"
	"timeclock/internal/shift"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, if enabled, the Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	log.Println("Starting timeclock...")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	files, err := media.NewFileStore(cfg.Server.UploadDir, "/uploads", store)
	if err != nil {
		return err
	}

	loc := cfg.Server.Location()
	guard := shift.NewGuard(shift.GuardConfig{
		Store:             store,
		Workers:           store,
		Attachments:       files,
		Notes:             store,
		Logger:            logger,
		AttachmentTimeout: cfg.Server.AttachmentTimeout,
	})
	shifts := shift.NewService(store, store, logger)

	router := api.NewRouter(api.Deps{
		Guard:     guard,
		Shifts:    shifts,
		Workers:   store,
		Tokens:    auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		UploadDir: files.Dir(),
		Location:  loc,
		Logger:    logger,

		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var discordBot *bot.Bot
	if cfg.Discord.Enabled {
		discordBot, err = bot.New(cfg.Discord, loc, guard, shifts, store)
		if err != nil {
			return fmt.Errorf("failed to create bot: %w", err)
		}
		go func() {
			if err := discordBot.Start(ctx); err != nil {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	// Wait for shutdown
	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	case err := <-errCh:
		log.Printf("Error running service: %v", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	if discordBot != nil {
		if err := discordBot.Shutdown(); err != nil {
			log.Printf("Error during bot shutdown: %v", err)
		}
	}

	log.Println("Application shutdown complete")
	return nil
}
