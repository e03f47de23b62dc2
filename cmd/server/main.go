// @title           ATS Resume Analyzer API
// @version         1.0
// @description     Uploads resumes, extracts their text and scores them for applicant tracking systems.
// @host            localhost:8080
// @schemes         http https
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"ats-analyzer/internal/analyzer"
	"ats-analyzer/internal/api"
	"ats-analyzer/internal/cache"
	"ats-analyzer/internal/config"
	"ats-analyzer/internal/database"
	"ats-analyzer/internal/extract"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/migrations"
	"ats-analyzer/internal/pipeline"
	"ats-analyzer/internal/storage"
	"ats-analyzer/internal/websocket"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	_ "ats-analyzer/docs"
)

const envLocal = "local"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env, cfg.Log.Level)
	log.Info("starting ats-analyzer", slog.String("env", cfg.Env))

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DB.Source)
	if err != nil {
		return err
	}
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = cfg.DB.MaxConns
	}
	if cfg.DB.MinConns > 0 {
		poolCfg.MinConns = cfg.DB.MinConns
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		return err
	}
	log.Info("connected to database")

	if err := migrations.RunPool(dbpool, cfg.DB.MigrationsPath); err != nil {
		return err
	}
	log.Info("migrations applied", slog.String("path", cfg.DB.MigrationsPath))

	localStorage, err := storage.NewLocalStorage(cfg.Storage.Root)
	if err != nil {
		return err
	}
	stager, err := storage.NewStager(cfg.Storage.TempDir, cfg.Storage.MaxUploadBytes, cfg.Storage.AllowedTypes)
	if err != nil {
		return err
	}
	log.Info("storage ready",
		slog.String("root", cfg.Storage.Root),
		slog.String("temp_dir", cfg.Storage.TempDir),
		slog.Int64("max_upload_bytes", cfg.Storage.MaxUploadBytes),
	)

	vertex, err := analyzer.NewVertexClient(ctx, cfg.Analyzer)
	if err != nil {
		return err
	}
	defer vertex.Close()

	var statsCache api.StatsCache
	if cfg.Redis.Address != "" {
		c, err := cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer c.Close()
		statsCache = c
		log.Info("dashboard stats cache enabled", slog.String("address", cfg.Redis.Address))
	} else {
		log.Info("dashboard stats cache disabled")
	}

	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	store := database.NewStore(dbpool)
	events := api.NewEvents(log, wsHub, statsCache, cfg.Redis.StatsTTL)
	svc := pipeline.New(log,
		extract.New(cfg.Extractor.MaxPages),
		analyzer.NewAdapter(vertex.Model, cfg.Analyzer.Timeout),
		store,
		localStorage,
		events,
	)
	server := api.NewServer(cfg, log, store, localStorage, stager, svc, events, wsHub)

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(env, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if env == envLocal {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
