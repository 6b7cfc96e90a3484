package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/payintrack/payintrack/internal/app"
	"github.com/payintrack/payintrack/internal/audit"
	"github.com/payintrack/payintrack/internal/docstore"
	jobmetrics "github.com/payintrack/payintrack/internal/jobs"
	"github.com/payintrack/payintrack/internal/platform/cache"
	"github.com/payintrack/payintrack/internal/platform/db"
	"github.com/payintrack/payintrack/internal/roles"
	"github.com/payintrack/payintrack/internal/session"
	"github.com/payintrack/payintrack/internal/shared"
	"github.com/payintrack/payintrack/internal/users"
	"github.com/payintrack/payintrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var store docstore.Store
	switch cfg.DocstoreDriver {
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store, err = docstore.NewPostgresStore(ctx, pool)
		if err != nil {
			logger.Error("init document store", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		store = docstore.NewRedisStore(redisClient)
	}

	roleStore := roles.NewStore(store)
	roleWatcher := roles.NewWatcher(roleStore, logger)
	if err := roleWatcher.Reload(ctx); err != nil {
		logger.Error("load role snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	userStore := users.NewStore(store)
	userService := users.NewService(userStore, roleWatcher, nil, nil)
	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	principal := session.NewManager(sessionManager, userService, roleWatcher, logger)

	auditService := audit.NewService(store, roleWatcher)
	metrics := jobmetrics.NewMetrics(nil)

	purgeTask, err := jobs.NewAuditPurgeTask(jobs.AuditPurgePayload{RetentionDays: cfg.AuditRetentionDays})
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionRehydrate, Handler: jobs.HandleSessionRehydrate(principal, logger, metrics)},
			{Type: jobs.TaskAuditPurge, Handler: jobs.HandleAuditPurge(auditService, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AuditPurgeCron, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	// The worker follows role changes too so rehydration uses a fresh
	// snapshot even when tasks arrive back to back.
	go func() {
		if err := roleWatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("role watcher", slog.Any("error", err))
		}
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
