// Package app wires configuration into a running listener. Both entry points
// share it and differ only in how they decide to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"authcode-listener/config"
	"authcode-listener/internal/broker"
	"authcode-listener/internal/broker/mqtt"
	"authcode-listener/internal/broker/nats"
	"authcode-listener/internal/clipboard"
	"authcode-listener/internal/listener"
	"authcode-listener/internal/logger"
	"authcode-listener/internal/metrics"
	"authcode-listener/internal/notify"
	"authcode-listener/internal/stats"
)

const shutdownTimeout = 5 * time.Second

// App is a fully wired listener plus its optional metrics endpoint
type App struct {
	cfg      *config.Config
	logger   *logger.Logger
	registry *prometheus.Registry
	stats    *stats.StatsCollector
	listener *listener.Listener
}

// New builds every component from cfg without touching the network
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	return NewWithDeps(cfg, log, clipboard.NewSystem(), notify.New(cfg.Notify, log))
}

// NewWithDeps is New with the desktop side effects injected
func NewWithDeps(cfg *config.Config, log *logger.Logger, sink clipboard.Sink, notifier notify.Notifier) (*App, error) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	s := stats.NewStatsCollector()

	handler := listener.NewHandler(sink, notifier, cfg.Notify.Title, log, m, s)

	l := listener.New(newConnection(cfg, log, m), cfg.Topic(), handler.HandleMessage, log,
		listener.WithMetrics(m),
		listener.WithStats(s),
	)

	return &App{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		stats:    s,
		listener: l,
	}, nil
}

func newConnection(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) broker.Connection {
	if cfg.Transport == config.TransportNATS {
		return nats.NewConnection(cfg.NATS, log.With("transport", "nats"), m)
	}
	return mqtt.NewConnection(cfg.MQTT, log.With("transport", "mqtt"), m)
}

// Handler serves prometheus metrics and the stats snapshot
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{
		Registry:          a.registry,
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		data, err := a.stats.GetStatsJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
	return mux
}

// Run blocks until ctx ends and the listener has disconnected
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.listener.Run(gctx)
	})

	if a.cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:    a.cfg.Metrics.Address,
			Handler: a.Handler(),
		}

		g.Go(func() error {
			a.logger.Info("starting metrics server",
				"address", a.cfg.Metrics.Address,
				"path", a.cfg.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed, stopping", "address", a.cfg.Metrics.Address, "error", err)
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("failed to shutdown metrics server", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
