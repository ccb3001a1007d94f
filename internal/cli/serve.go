package cli

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/crewrate/internal/adapters/http/api"
	"github.com/okian/crewrate/internal/adapters/http/site"
	"github.com/okian/crewrate/internal/adapters/http/swagger"
	service "github.com/okian/crewrate/internal/app"
	"github.com/okian/crewrate/internal/config"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				o.cfg.Addr = addr
			}
			ctx := cmd.Context()

			svc, err := o.newService(ctx)
			if err != nil {
				return err
			}
			defer svc.Stop()

			return pkgerrors.Wrap(serve(ctx, o.cfg, svc), "serving HTTP")
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config addr)")
	return cmd
}

// newHandler builds the mux with the API docs, the JSON API and the web UI.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc,
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithLogger(logger.Named("http")),
	)
	apiServer.Register(ctx, mux)

	site.Register(ctx, mux)
	return mux
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func serve(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	log := logger.Named("server")

	interval := metrics.Default().RefreshInterval()
	go startSystemMetricsUpdater(ctx, interval)
	go startServiceMetricsUpdater(ctx, svc, interval)

	if cfg.WatchConfig && cfg.Path != "" {
		go func() {
			if err := config.Watch(ctx, cfg.Path, func(next *config.Config) {
				applyReloaded(ctx, svc, next)
			}); err != nil {
				log.Error(ctx, "config watch stopped", logger.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}

	log.Info(ctx, "server stopped")
	return nil
}

// applyReloaded activates reloaded categories, thresholds and scale and the
// log level. Invalid settings keep the current ones.
func applyReloaded(ctx context.Context, svc *service.Service, cfg *config.Config) {
	log := logger.Named("server")
	if _, err := svc.ApplySettings(ctx, service.SettingsFromConfig(cfg), service.SourceConfig); err != nil {
		log.Warn(ctx, "reloaded settings rejected", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; keeping current level", logger.String("log_level", cfg.LogLevel), logger.Error(err))
	}
}

// startSystemMetricsUpdater updates system metrics every interval until
// ctx is cancelled.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes inventory gauges every interval
// until ctx is cancelled.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemStats(m.HeapAlloc, runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the worker, rating and status gauges.
// Stats updates the gauges itself.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	if _, err := svc.Stats(ctx); err != nil {
		logger.Named("server").Warn(ctx, "refreshing service metrics", logger.Error(err))
	}
}
