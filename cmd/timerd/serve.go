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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pomodoro/timerd/internal/config"
	"pomodoro/timerd/internal/handler"
	"pomodoro/timerd/internal/middleware"
	"pomodoro/timerd/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the timer API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.load()
			if port != "" {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	origins := middleware.NewOriginPolicy(cfg.CORSOrigins)
	engine := router.New(a.auth, router.Handlers{
		Auth:     handler.NewAuthHandler(a.auth),
		Timer:    handler.NewTimerHandler(a.timers, a.sessions),
		Stream:   handler.NewStreamHandler(a.timers, origins, a.logger),
		Settings: handler.NewSettingsHandler(a.settings),
		Stats:    handler.NewStatsHandler(a.stats),
	}, origins)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	watcher := config.NewDefaultsWatcher(cfg.ConfigFile, a.settings.SetDefaults, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("port", cfg.Port).Info("timerd listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Closing the timers also ends every open stream.
		a.registry.Close()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.timers.WatchSettings(ctx)
	})
	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil {
			a.logger.WithError(err).Warn("defaults file is not watched")
		}
		return nil
	})
	return g.Wait()
}
