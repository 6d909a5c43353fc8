package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventplanner/internal/auth"
	"eventplanner/internal/cache"
	"eventplanner/internal/config"
	"eventplanner/internal/db"
	"eventplanner/internal/repository"
	"eventplanner/internal/seed"
	"eventplanner/internal/service"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed <fixture.json | url>",
		Short: "Load demo users and events from a JSON fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := config.NewLogger(cfg.Logging)
			ctx := logger.WithContext(cmd.Context())

			gormDB, err := db.NewMySQL(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fixture, err := seed.Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load fixture: %w", err)
			}
			logger.Info().
				Int("users", len(fixture.Users)).
				Int("events", len(fixture.Events)).
				Str("source", args[0]).
				Msg("fixture loaded")

			cacheClient := cache.New(cfg.Redis, logger)
			defer cacheClient.Close()

			userRepo := repository.NewUserRepository(gormDB, cfg.Database.Timeout)
			eventRepo := repository.NewEventRepository(gormDB, cfg.Database.Timeout)
			tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

			stats, err := seed.Run(ctx, seed.Services{
				Auth:   service.NewAuthService(userRepo, tokens, auth.NewTokenStore(cacheClient)),
				Users:  service.NewUserService(userRepo, cacheClient),
				Events: service.NewEventService(eventRepo, userRepo, nil, cfg.Email.AppBaseURL),
			}, fixture)
			if err != nil {
				return err
			}

			logger.Info().
				Int("users_created", stats.UsersCreated).
				Int("users_existing", stats.UsersExisting).
				Int("events_created", stats.EventsCreated).
				Int("events_skipped", stats.EventsSkipped).
				Int("invited", stats.Invited).
				Int("rsvps", stats.RSVPs).
				Msg("seed completed")
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file path (optional, uses env vars by default)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
