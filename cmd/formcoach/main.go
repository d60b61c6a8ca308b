package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"tailscale.com/tsnet"

	"github.com/claude/formcoach/internal/catalog"
	"github.com/claude/formcoach/internal/config"
	"github.com/claude/formcoach/internal/mcp"
	"github.com/claude/formcoach/internal/metrics"
	"github.com/claude/formcoach/internal/server"
	"github.com/claude/formcoach/internal/session"
	"github.com/claude/formcoach/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := cfg.Log.NewLogger(os.Stdout)
	log.Info("formcoach starting", "version", Version, "storage", cfg.Storage.Driver)

	ctx := context.Background()

	// Open storage
	var (
		store      storage.Store
		collectors []prometheus.Collector
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, cfg.Storage.MigrationsPath); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn, cfg.Storage.DefaultBodyWeightKg)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			db.Pool,
			map[string]string{"db_name": cfg.Database.Name},
		))
		store = db
		log.Info("database connected")
	default:
		db, err := storage.OpenLocal(cfg.Storage.SQLitePath, cfg.Storage.DefaultBodyWeightKg)
		if err != nil {
			log.Error("failed to open sqlite database", "path", cfg.Storage.SQLitePath, "error", err)
			os.Exit(1)
		}
		store = db
		log.Info("sqlite database opened", "path", cfg.Storage.SQLitePath)
		if *migrateOnly {
			log.Info("migrate-only: sqlite schema is applied on open, exiting")
			db.Close()
			return
		}
	}

	if err := store.SeedExercises(ctx, storage.DefaultExercises); err != nil {
		log.Error("seeding exercise catalog failed", "error", err)
		os.Exit(1)
	}

	// Engine
	reg := metrics.SetupPrometheus(collectors...)
	m := metrics.NewManager("formcoach", "", reg)
	cat := catalog.New(store, cfg.Catalog.CacheSizeMB, cfg.Catalog.CacheTTL, log)
	dispatcher := session.NewDispatcher(cat, store, m, session.Options{
		Thresholds:    cfg.Engine.Thresholds,
		RestartPolicy: session.RestartPolicy(cfg.Sessions.RestartPolicy),
	}, log)

	reaper := session.NewReaper(dispatcher, cfg.Sessions.IdleTimeout, cfg.Sessions.ReapInterval, log)
	if err := reaper.Start(ctx); err != nil {
		log.Error("failed to start idle reaper", "error", err)
		os.Exit(1)
	}

	// Create server
	srv := server.New(dispatcher, cat, store, m, server.Options{
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Registry:       reg,
	}, log)

	mcpSrv := mcp.New(&mcp.Local{Catalog: cat, Dispatcher: dispatcher, Store: store}, Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithUserID(ctx, server.CallerLogin(r))
		}),
	))

	// Serve over tsnet or plain HTTP.
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetIdentity(func(ctx context.Context, remoteAddr string) (server.UserInfo, error) {
			who, err := lc.WhoIs(ctx, remoteAddr)
			if err != nil {
				return server.UserInfo{}, err
			}
			if who.UserProfile == nil {
				return server.UserInfo{}, fmt.Errorf("no user profile for %s", remoteAddr)
			}
			return server.UserInfo{
				Login:       who.UserProfile.LoginName,
				DisplayName: who.UserProfile.DisplayName,
			}, nil
		})

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig, "live_sessions", len(dispatcher.Sessions()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = httpSrv.Shutdown(shutdownCtx)
	reaper.Stop()
	err = multierr.Append(err, store.Close())
	if tsServer != nil {
		err = multierr.Append(err, tsServer.Close())
	}
	for _, e := range multierr.Errors(err) {
		log.Error("shutdown error", "error", e)
	}
	log.Info("server stopped")
}
