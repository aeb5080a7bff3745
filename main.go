package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"todo-board/api"
	"todo-board/config"
	"todo-board/domain"
	"todo-board/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	ctx := context.Background()
	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeSource()

	var notifier storage.Notifier
	if cfg.TaskEventsQueue != "" {
		qn, err := storage.NewQueueNotifier(cfg.StorageConnectionString, cfg.TaskEventsQueue)
		if err != nil {
			log.Fatalf("queue: %v", err)
		}
		notifier = qn
	}
	source = storage.NewPublishing(source, notifier)

	var deduper api.Deduper
	if cfg.RedisConnectionString != "" {
		rc := redis.NewClient(config.RedisOptions(cfg.RedisConnectionString))
		defer rc.Close()
		if cfg.TasksCacheTTL > 0 {
			source = storage.NewCache(source, rc, cfg.Board, cfg.TasksCacheTTL)
		}
		deduper = api.NewRedisDeduper(rc, cfg.Board, cfg.DeduperTTL)
	} else {
		log.Warn("REDIS_CONNECTION_STRING not set; task cache and create deduplication disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "Idempotency-Key"},
		ExposeHeaders: []string{"Idempotency-Key"},
	}))
	e.Use(api.GzipRequestMiddleware())
	if cfg.StaticDir != "" {
		e.Static("/static", cfg.StaticDir)
	}

	page := api.Page{
		Title:     cfg.Layout.Title,
		SheetURL:  cfg.Layout.Sheet.URL,
		SheetSize: domain.Size{Width: cfg.Layout.Sheet.Width, Height: cfg.Layout.Sheet.Height},
		Columns:   cfg.Layout.Columns,
	}
	api.Register(e, source, deduper, page, time.Now, logger)

	go func() {
		log.WithFields(log.Fields{"addr": cfg.ListenAddr, "source": cfg.TaskSource, "board": cfg.Board}).Info("listening")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	<-stop
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorf("tracer shutdown: %v", err)
	}
}

// openSource builds the task source selected by TASK_SOURCE. The returned
// func releases its connections.
func openSource(ctx context.Context, cfg *config.Config) (storage.Source, func(), error) {
	noop := func() {}
	switch cfg.TaskSource {
	case config.SourceTable:
		t, err := storage.NewTable(cfg.StorageConnectionString, cfg.TasksTable, cfg.Board)
		return t, noop, err
	case config.SourcePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		pg := storage.NewPostgres(pool, cfg.Board)
		if err := pg.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return pg, pool.Close, nil
	case config.SourceMemory:
		return storage.NewMemory(), noop, nil
	default:
		return storage.NewRemote(cfg.TasksAPIURL, nil), noop, nil
	}
}
