package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hertelukas/jellyfin/internal/database"
	internalhttp "github.com/hertelukas/jellyfin/internal/http"
	"github.com/hertelukas/jellyfin/internal/http/handlers"
	"github.com/hertelukas/jellyfin/internal/livetv"
	"github.com/hertelukas/jellyfin/internal/observability"
	"github.com/hertelukas/jellyfin/internal/playback"
	"github.com/hertelukas/jellyfin/internal/recorder"
	"github.com/hertelukas/jellyfin/internal/repository"
	"github.com/hertelukas/jellyfin/internal/service"
	"github.com/hertelukas/jellyfin/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the jellyfin server",
	Long: `Start the jellyfin HTTP server and API.

The server provides:
- Playback negotiation for registered media sources
- Live stream session management
- Bounded stream recording
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8096, "Port to listen on")
	serveCmd.Flags().String("database", "", "Database DSN (overrides config)")
	serveCmd.Flags().String("recording-dir", "", "Recording directory (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Flags override config and env only when explicitly set.
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("database") {
		cfg.Database.DSN, _ = cmd.Flags().GetString("database")
	}
	if cmd.Flags().Changed("recording-dir") {
		cfg.Recording.Directory, _ = cmd.Flags().GetString("recording-dir")
	}

	logger := slog.Default()
	logger.Info("starting jellyfin", slog.String("version", version.Short()))

	db, err := database.New(cfg.Database, observability.WithComponent(logger, "database"))
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	// Domain wiring.
	profileRepo := repository.NewDeviceProfileRepository(db.DB)
	profiles := service.NewProfileService(profileRepo)

	registry := livetv.NewInMemoryRegistry()
	provider := livetv.NewHTTPProvider(registry)
	sessions := livetv.NewSessionManager(provider, cfg.LiveTV.OpenTimeout).
		WithLogger(observability.WithComponent(logger, "livetv"))
	defer sessions.Shutdown()

	janitor := livetv.NewJanitor(sessions, cfg.LiveTV.SessionTTL, cfg.LiveTV.CleanupCron).
		WithLogger(observability.WithComponent(logger, "janitor"))
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("starting session janitor: %w", err)
	}
	defer janitor.Stop()

	rec := recorder.New().
		WithBufferSize(cfg.Recording.CopyBufferSize).
		WithLogger(observability.WithComponent(logger, "recorder"))
	recordings := service.NewRecordingService(rec, sessions, cfg.Recording.Directory, cfg.Recording.DefaultDuration).
		WithLogger(observability.WithComponent(logger, "recordings"))
	defer recordings.StopAll()

	negotiator := playback.NewNegotiator(registry, profiles, sessions).
		WithLogger(observability.WithComponent(logger, "playback"))

	// HTTP surface.
	server := internalhttp.NewServer(cfg.Server, logger, version.Short())
	api := server.API()

	handlers.NewPlaybackHandler(negotiator).Register(api)
	handlers.NewLiveStreamHandler(sessions).Register(api)
	handlers.NewRecordingHandler(recordings).Register(api)
	handlers.NewMediaSourceHandler(registry).Register(api)
	handlers.NewDeviceProfileHandler(profiles).Register(api)
	handlers.NewSystemHandler(version.Short()).
		WithDB(db.DB).
		WithRecordings(recordings).
		Register(api)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	if err := server.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
