package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"

	"fieldinspect/internal/app/client/config"
	"fieldinspect/internal/domain/inspection"
	"fieldinspect/internal/domain/sync"
	"fieldinspect/internal/infrastructure/storage/minio"
	"fieldinspect/internal/infrastructure/storage/sqlite"
	"fieldinspect/internal/lock"
	"fieldinspect/internal/report"
)

type ctxKey struct{}

// WithApp stores the app in ctx for cobra subcommands.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, app)
}

func FromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(ctxKey{}).(*App)
	if !ok || app == nil {
		return nil, errors.New("application is not initialized")
	}
	return app, nil
}

// App holds every client-side component, wired once per process.
type App struct {
	Config *config.Config

	Records   *inspection.Service
	Engine    *sync.Engine
	Resolver  *sync.Resolver
	Status    *sync.StatusReporter
	Scheduler *sync.Scheduler
	Reports   *report.Exporter
	Renderer  *report.Renderer

	log    *slog.Logger
	store  inspection.Store
	remote *httpClient
}

type options struct {
	remote   sync.Remote
	uploader report.Uploader
}

type Option func(*options)

// WithRemote replaces the HTTP authority client.
func WithRemote(r sync.Remote) Option {
	return func(o *options) { o.remote = r }
}

func WithUploader(u report.Uploader) Option {
	return func(o *options) { o.uploader = u }
}

func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DataPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := sqlite.Open(cfg.DataPath, log)
	if err != nil {
		return nil, err
	}

	httpCl := NewHTTPClient(cfg, log)
	remote := o.remote
	if remote == nil {
		remote = httpCl
	}

	uploader := o.uploader
	if uploader == nil && cfg.Minio.Enabled() {
		mc, err := minio.New(minio.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		}, log)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		uploader = mc
	}

	locks := lock.NewKeyed()
	engine := sync.NewEngine(store, remote, locks, log,
		sync.WithParallelism(cfg.Sync.Parallelism),
		sync.WithPushTimeout(cfg.Sync.PushTimeout),
	)
	renderer := report.NewRenderer()

	app := &App{
		Config:   cfg,
		Records:  inspection.NewService(store, locks, log),
		Engine:   engine,
		Resolver: sync.NewResolver(store, locks, log),
		Status:   sync.NewStatusReporter(store),
		Scheduler: sync.NewScheduler(engine, sync.SchedulerConfig{
			Interval:       cfg.Sync.Interval,
			MinInterval:    cfg.Sync.MinInterval,
			InitialBackoff: cfg.Sync.InitialBackoff,
			MaxBackoff:     cfg.Sync.MaxBackoff,
			JitterFraction: 0.25,
		}, log),
		Reports:  report.NewExporter(store, renderer, uploader, log),
		Renderer: renderer,
		log:      log,
		store:    store,
		remote:   httpCl,
	}

	log.Debug("client initialized", "data_path", cfg.DataPath, "server", cfg.BaseURL())
	return app, nil
}

// CheckConnection pings the authority's health endpoint.
func (a *App) CheckConnection(ctx context.Context) error {
	return a.remote.HealthCheck(ctx)
}

// Watch runs the scheduler until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	return a.Scheduler.Run(ctx)
}

func (a *App) Close() error {
	return a.store.Close()
}
