package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/catalog-backend/internal/data/db"
	httpserver "github.com/yungbote/catalog-backend/internal/http"
	"github.com/yungbote/catalog-backend/internal/observability"
	"github.com/yungbote/catalog-backend/internal/platform/blob"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    Repos
	Services Services
	Realtime Realtime
	Blob     blob.Store
	Server   *httpserver.Server

	otelShutdown func(context.Context) error
}

// New connects to the database, migrates it and wires every component.
// Nothing runs until Run is called.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbs, err := db.NewService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	rt, err := wireRealtime(log, cfg)
	if err != nil {
		_ = dbs.Close()
		return nil, err
	}

	store, err := blob.New(ctx, log, cfg.Blob)
	if err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	reposet := wireRepos(dbs.DB(), log)
	serviceset := wireServices(log, cfg, reposet, rt.Outbound)
	handlerset := wireHandlers(log, serviceset, rt, store, dbs)
	server := wireServer(log, cfg, handlerset)
	server.OnShutdown(rt.Registry.Close)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbs,
		Repos:        reposet,
		Services:     serviceset,
		Realtime:     rt,
		Blob:         store,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and delivers change events until ctx is cancelled or a
// component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if err := a.Realtime.Start(gctx); err != nil {
		return fmt.Errorf("start realtime: %w", err)
	}

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
		return a.Server.Run(gctx, a.Cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Realtime.Stop()
		return nil
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Blob != nil {
		_ = a.Blob.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
