package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskbridge/backend/api/handler"
	"github.com/taskbridge/backend/internal/config"
	"github.com/taskbridge/backend/internal/infrastructure/journal"
	"github.com/taskbridge/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskbridge/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskbridge/backend/internal/infrastructure/redis"
	"github.com/taskbridge/backend/internal/middleware"
	"github.com/taskbridge/backend/internal/realtime"
	"github.com/taskbridge/backend/internal/router"
	"github.com/taskbridge/backend/internal/services"
	"github.com/taskbridge/backend/internal/services/lifecycle"
	"github.com/taskbridge/backend/pkg/httpcontext"
	"github.com/taskbridge/backend/pkg/logger"
	"github.com/taskbridge/backend/repository/postgres"
	redisRepo "github.com/taskbridge/backend/repository/redis"
	authUC "github.com/taskbridge/backend/usecase/auth"
	taskUC "github.com/taskbridge/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	eventJournal, err := journal.Open(cfg.Journal.Path, "events")
	if err != nil {
		zapLogger.Fatal("failed to open event journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return eventJournal.Close()
	})

	registry := realtime.NewRegistry(zapLogger)
	hub := realtime.NewHub(registry, eventJournal, zapLogger)
	socketServer := realtime.NewWebSocketServer(registry, zapLogger)

	mon := monitor.New(pool, redisClient, eventJournal, registry, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sweeper := services.NewJournalSweeper(eventJournal, zapLogger, services.SweeperConfig{
		Interval:  cfg.Journal.SweepInterval,
		Retention: cfg.Journal.Retention,
	})
	sweeper.Start()
	manager.Register("journal_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL)

	authUseCase := authUC.New(userRepo, sessionRepo, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL, zapLogger)
	taskUseCase := taskUC.New(taskRepo, userRepo, hub, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Events: apiHandler.NewEventsHandler(eventJournal, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		Socket: socketServer,
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	requireRole := func(role string) router.Middleware {
		return middleware.RequireRole(role, zapLogger)
	}
	r := router.New(handlers, authMiddleware, requireRole)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
