package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agora-ai/agora/internal/adapters/store"
	"github.com/agora-ai/agora/internal/api"
	"github.com/agora-ai/agora/internal/config"
	"github.com/agora-ai/agora/internal/events"
	"github.com/agora-ai/agora/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve debates over HTTP",
	Long: `Start the agora HTTP server: a JSON REST API for creating and driving
debates, plus a Server-Sent Events stream of debate events.

Examples:
  # Start with defaults (127.0.0.1:8080)
  agora serve

  # Bind elsewhere
  agora serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"host address to bind to (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"port to listen on (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	scheduler, runtime, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	if err := runtime.Ping(context.Background()); err != nil {
		logger.Warn("ollama runtime unreachable; debates will fail until it comes back",
			slog.String("host", cfg.Ollama.Host),
			slog.String("error", err.Error()),
		)
	}

	debateStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.CloseStore(debateStore); closeErr != nil {
			logger.Warn("closing debate store", slog.String("error", closeErr.Error()))
		}
	}()

	bus := events.New(100)
	defer bus.Close()

	service := api.NewDebateService(scheduler, debateStore, bus, logger)
	server := api.NewServer(cfg.Server, service,
		api.WithEventBus(bus),
		api.WithServerLogger(logger),
	)

	// Reload on config edits; only safe-to-swap settings take effect live
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	watchConfig(ctx, logger)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	logger.Info("server started", slog.String("addr", server.Addr()))

	<-ctx.Done()
	logger.Info("shutting down server...")

	if err := server.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// watchConfig starts the config file watcher when a config file is in use.
func watchConfig(ctx context.Context, logger *logging.Logger) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(".agora/config.yaml"); err != nil {
			return
		}
		path = ".agora/config.yaml"
	}

	loader := config.NewLoaderWithViper(viper.New()).WithConfigFile(path)
	watcher := config.NewWatcher(loader, path, func(cfg *config.Config) {
		logger.Info("configuration reloaded", slog.String("path", path),
			slog.String("log_level", cfg.Log.Level))
	})
	go func() {
		if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("config watcher stopped", slog.String("error", err.Error()))
		}
	}()
}
