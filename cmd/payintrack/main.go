package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/payintrack/payintrack/internal/app"
	"github.com/payintrack/payintrack/internal/audit"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/mentors"
	"github.com/payintrack/payintrack/internal/platform/cache"
	"github.com/payintrack/payintrack/internal/platform/db"
	"github.com/payintrack/payintrack/internal/observability"
	"github.com/payintrack/payintrack/internal/payins"
	"github.com/payintrack/payintrack/internal/referrors"
	"github.com/payintrack/payintrack/internal/roles"
	"github.com/payintrack/payintrack/internal/session"
	"github.com/payintrack/payintrack/internal/shared"
	"github.com/payintrack/payintrack/internal/users"
	"github.com/payintrack/payintrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	roleStore := roles.NewStore(store)
	if err := roleStore.SeedDefaults(ctx); err != nil {
		logger.Error("seed roles", slog.Any("error", err))
		os.Exit(1)
	}
	userStore := users.NewStore(store)
	if err := userStore.SeedDefaults(ctx, cfg.BootstrapAdminPassword); err != nil {
		logger.Error("seed users", slog.Any("error", err))
		os.Exit(1)
	}

	roleWatcher := roles.NewWatcher(roleStore, logger)
	if err := roleWatcher.Reload(ctx); err != nil {
		logger.Error("load role snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	roleWatcher.OnChange(func(ctx context.Context) {
		_, err := jobClient.EnqueueSessionRehydrate(ctx, jobs.SessionRehydratePayload{Reason: "roles changed"})
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.Warn("enqueue session rehydrate", slog.Any("error", err))
		}
	})

	auditLogger := audit.NewLogger(store, logger)
	auditService := audit.NewService(store, roleWatcher)

	userService := users.NewService(userStore, roleWatcher, auditLogger, metrics)
	roleService := roles.NewService(roleStore, roleWatcher, auditLogger, metrics)
	payinService := payins.NewService(store, roleWatcher, auditLogger, metrics)
	referrorService := referrors.NewService(store, roleWatcher, auditLogger, metrics)
	mentorService := mentors.NewService(store, roleWatcher, auditLogger, metrics)

	principal := session.NewManager(sessionManager, userService, roleWatcher, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Principal:       principal,
		SessionHandler:  session.NewHandler(logger, principal),
		UsersHandler:    users.NewHandler(logger, userService),
		RolesHandler:    roles.NewHandler(logger, roleService),
		PayinsHandler:   payins.NewHandler(logger, payinService),
		ReferrorHandler: referrors.NewHandler(logger, referrorService),
		MentorHandler:   mentors.NewHandler(logger, mentorService),
		AuditHandler:    audit.NewHandler(logger, auditService),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := roleWatcher.Run(groupCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("run", slog.Any("error", err))
		os.Exit(1)
	}
}
