package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/specialistvlad/deploygrid/internal/chain"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/metrics"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "deploygrid"

// Deployer performs deployment actions against one network.
type Deployer interface {
	Deploy(ctx context.Context, u *unit.Unit, args []any) (ledger.Result, error)
	Close()
}

// DialFunc connects a Deployer to the network described by cfg, using the
// contract artifacts found under artifactsPath.
type DialFunc func(ctx context.Context, cfg chain.Config, artifactsPath string) (Deployer, error)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	dial     DialFunc
	now      func() time.Time
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	httpServer *http.Server
}

// Option configures an App.
type Option func(*App)

// WithDialer replaces the go-ethereum deployer, mainly for tests.
func WithDialer(dial DialFunc) Option {
	return func(a *App) { a.dial = dial }
}

// WithClock sets the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewApp is the constructor for the main application. Reports go to outW,
// logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	registry := prometheus.NewRegistry()
	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		dial:     dialChain,
		now:      time.Now,
		registry: registry,
		metrics:  metrics.PrometheusMetrics(registry, MetricsNamespace),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the Prometheus registry the run metrics are exported on.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// dialChain loads the artifacts and connects a go-ethereum deployer.
func dialChain(ctx context.Context, cfg chain.Config, artifactsPath string) (Deployer, error) {
	logger := ctxlog.FromContext(ctx)

	artifacts, err := chain.LoadArtifacts(artifactsPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Contract artifacts loaded.", "path", artifactsPath, "count", artifacts.Len())

	return chain.Dial(ctx, cfg, artifacts)
}
