package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"eventplanner/docs" // swagger docs
	"eventplanner/internal/cache"
	"eventplanner/internal/config"
	"eventplanner/internal/db"
	"eventplanner/internal/email"
	"eventplanner/internal/router"
)

const shutdownTimeout = 10 * time.Second

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

// @title Event Planner API
// @version 1.0
// @description Event planning API: signup and login, events, invitations and RSVPs with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	root := &cobra.Command{
		Use:   "server",
		Short: "Event planner API server",
		// Serve by default when no subcommand is given.
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional, uses env vars by default)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, config.NewLogger(cfg.Logging), nil
}

func migrate() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	gormDB, err := db.NewMySQL(cfg.Database)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logger.Info().Str("database", cfg.Database.Name).Msg("migrations applied")
	return nil
}

func serve(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	gormDB, err := db.NewMySQL(cfg.Database)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	cacheClient := cache.New(cfg.Redis, logger)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, continuing without cache and token revocation")
	}

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email init: %w", err)
	}
	if !mailer.Enabled() {
		logger.Info().Msg("RESEND_API_KEY not set, invite emails disabled")
	}

	if cfg.Server.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.Server.SwaggerHost
	}

	e := router.New(cfg, router.Deps{
		DB:       gormDB,
		Cache:    cacheClient,
		Notifier: mailer,
		Logger:   logger,
	})

	addr := ":" + cfg.Server.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("environment", cfg.Environment).
			Str("version", version).
			Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
