package main

import (
	"context"
	"fmt"
	"strings"

	"timeclock/internal/auth"
	"timeclock/internal/config"
	"timeclock/internal/db/models"

	"github.com/spf13/cobra"
)

func newWorkerCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage worker accounts",
	}
	cmd.AddCommand(newWorkerCreateCmd(configPath))
	return cmd
}

func newWorkerCreateCmd(configPath *string) *cobra.Command {
	var (
		username  string
		password  string
		fullName  string
		role      string
		discordID string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a worker account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("worker create needs a persistent database driver")
			}

			worker, err := buildWorker(username, password, fullName, role, discordID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.CreateWorker(ctx, worker); err != nil {
				return fmt.Errorf("error creating worker: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", worker.Role, worker.Username, worker.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "USER or ADMIN")
	cmd.Flags().StringVar(&discordID, "discord-id", "", "Discord user id to link")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func buildWorker(username, password, fullName, role, discordID string) (*models.Worker, error) {
	r := models.Role(strings.ToUpper(strings.TrimSpace(role)))
	if r != models.RoleUser && r != models.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	w := &models.Worker{
		Username:     strings.TrimSpace(username),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		Role:         r,
	}
	if discordID = strings.TrimSpace(discordID); discordID != "" {
		w.DiscordID = &discordID
	}
	return w, nil
}
