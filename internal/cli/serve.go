package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/terra-clan/circular-readiness/internal/api"
	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/cleanup"
	"github.com/terra-clan/circular-readiness/internal/health"
)

func cmdServe(g *globalFlags) *cli.Command {
	var (
		host       string
		port       int64
		catalogDir string
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "host",
				Usage:       "Listen host; overrides SERVER_HOST",
				Destination: &host,
			},
			&cli.IntFlag{
				Name:        "port",
				Usage:       "Listen port; overrides SERVER_PORT",
				Destination: &port,
			},
			&cli.StringFlag{
				Name:        "catalog-dir",
				Usage:       "Question catalog directory; overrides CATALOG_DIR",
				Destination: &catalogDir,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = int(port)
			}
			if catalogDir != "" {
				cfg.Catalog.Dir = catalogDir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}

			slog.Info("starting circular-readiness",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"storage", cfg.Storage.Driver,
				"sessions", cfg.Sessions.Driver,
				"auth", cfg.Auth.Enabled,
			)

			initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
			defer initCancel()

			loader, err := loadCatalog(cfg.Catalog.Dir)
			if err != nil {
				return err
			}

			repo, err := openRepository(initCtx, cfg.Storage)
			if err != nil {
				return err
			}

			store, err := openSessionStore(initCtx, cfg)
			if err != nil {
				repo.Close()
				return err
			}

			manager := assessment.NewManager(loader, store, repo, assessment.Options{
				DefaultTTL: cfg.Sessions.DefaultTTL,
				MaxTTL:     cfg.Sessions.MaxTTL,
			})
			defer func() {
				if err := manager.Close(); err != nil {
					slog.Error("manager close error", "error", err)
				}
			}()

			registry := health.NewRegistry(5 * time.Second)
			registry.Register("repository", repo)
			registry.Register("session_store", store)
			registry.Register("catalog", health.CheckerFunc(func(ctx context.Context) error {
				if loader.Catalog() == nil {
					return assessment.ErrCatalogNotLoaded
				}
				return nil
			}))

			runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cleanup.NewCleaner(manager, cfg.Cleanup.Interval).Start(runCtx)

			auth := api.NewAuthMiddleware(repo, cfg.Auth.Enabled, cfg.Auth.StaticKeys)
			server := api.NewServer(cfg.Server, manager, loader, auth, registry)
			httpServer := &http.Server{
				Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Handler:      server.Router(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server starting", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("HTTP server error: %w", err)
				}
			case <-runCtx.Done():
			}

			slog.Info("shutting down gracefully...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}

			slog.Info("circular-readiness stopped")
			return nil
		},
	}
}
