// Package app wires configuration, logging, metrics, the document medium,
// and the domain service into one process-wide object.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ticketdesk/internal/config"
	"ticketdesk/internal/core"
	"ticketdesk/internal/docstore"
	"ticketdesk/internal/logger"
)

// App owns the long-lived components. Construct it once with New and Close
// it at shutdown.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Medium   docstore.Medium
	Store    *core.Store
	Service  *core.Service
	Registry *prometheus.Registry
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	medium   docstore.Medium
	registry *prometheus.Registry
	tracer   core.Tracer
}

// WithLogger replaces the logger built from cfg.Log.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMedium replaces the medium opened from cfg.Storage. The App still
// closes it.
func WithMedium(m docstore.Medium) Option {
	return func(o *options) { o.medium = m }
}

// WithRegistry registers Prometheus collectors on reg instead of a fresh
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithTracer installs a tracer on the service.
func WithTracer(t core.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// New builds the application from cfg and loads the persisted state.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := o.logger
	if log == nil {
		var err error
		log, err = logger.New(logger.Config{
			Level:       cfg.Log.Level,
			Development: cfg.Log.Development,
			OutputPath:  cfg.Log.OutputPath,
		})
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}

	a := &App{Config: cfg, Logger: log}

	svcOpts := []core.ServiceOption{core.WithLogger(log.Named("service"))}
	metrics, reg, err := buildMetrics(cfg.Metrics, o.registry)
	if err != nil {
		return nil, err
	}
	a.Registry = reg
	if metrics != nil {
		svcOpts = append(svcOpts, core.WithMetricsRecorder(metrics))
	}
	if o.tracer != nil {
		svcOpts = append(svcOpts, core.WithTracer(o.tracer))
	}

	medium := o.medium
	if medium == nil {
		medium, err = docstore.Open(ctx, cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	} else if cfg.Storage.QuotaBytes > 0 {
		medium = docstore.NewQuotaMedium(medium, cfg.Storage.QuotaBytes)
	}
	a.Medium = medium

	adapter := docstore.NewAdapter(medium,
		docstore.WithLogger(log.Named("docstore")),
		docstore.WithWarning(func(key string, err error) {
			log.Warn("storage full, changes are kept in memory only",
				zap.String("key", key), zap.Error(err))
		}),
	)
	a.Store = core.NewStore(core.NewDefaultRulesEngine(),
		core.WithAdapter(adapter),
		core.WithStoreLogger(log.Named("store")),
		core.WithPasswordHasher(core.NewPasswordHasher(cfg.Auth.BcryptCost)),
		core.WithSeedCredentials(cfg.Auth.RootPassword, cfg.Auth.DemoAdminPassword),
	)
	if err := a.Store.Load(ctx); err != nil {
		_ = medium.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	a.Service = core.NewService(a.Store, svcOpts...)
	return a, nil
}

func buildMetrics(backend string, reg *prometheus.Registry) (core.MetricsRecorder, *prometheus.Registry, error) {
	switch backend {
	case config.MetricsExpvar:
		return core.NewExpvarMetricsRecorder(""), nil, nil
	case config.MetricsPrometheus:
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		rec, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			return nil, nil, err
		}
		return rec, reg, nil
	default:
		return nil, nil, nil
	}
}

// Close releases the medium and flushes the logger.
func (a *App) Close() error {
	var errs []error
	if a.Medium != nil {
		if err := a.Medium.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
