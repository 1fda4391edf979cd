package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hostel-service/internal/api/http"
	"github.com/spec-kit/hostel-service/internal/api/http/handlers"
	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/events"
	"github.com/spec-kit/hostel-service/internal/observability"
	"github.com/spec-kit/hostel-service/internal/persistence"
	"github.com/spec-kit/hostel-service/internal/repository"
	"github.com/spec-kit/hostel-service/internal/service"
	"github.com/spec-kit/hostel-service/internal/worker"
)

type repositories struct {
	users    repository.UserRepository
	requests repository.ServiceRequestRepository
	history  repository.RequestHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := map[string]handlers.Pinger{}
	var repos repositories
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store := repository.NewMemoryStore()
		repos = repositories{users: store.Users(), requests: store.Requests(), history: store.History()}
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		repos = repositories{
			users:    repository.NewUserRepository(pool),
			requests: repository.NewServiceRequestRepository(pool),
			history:  repository.NewRequestHistoryRepository(pool),
		}
		deps["postgres"] = pg
	}

	var limiter auth.AttemptLimiter
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		limiter = auth.NewRedisAttemptLimiter(redis.Client, cfg.OTP.MaxAttempts, domain.OTPValidity)
		deps["redis"] = redis
	} else {
		logger.Warn("REDIS_ADDR not set; otp attempts are counted in process")
		limiter = auth.NewMemoryAttemptLimiter(cfg.OTP.MaxAttempts, domain.OTPValidity)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: repos.requests,
		UserRepo:    repos.users,
		HistoryRepo: repos.history,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Policy:      cfg.Requests,
	})

	app := httptransport.NewServer(httptransport.ServerConfig{
		Name:           cfg.App.Name,
		Version:        cfg.App.Version,
		StoreDriver:    cfg.Store.Driver,
		RequestTimeout: cfg.App.RequestTimeout(),
		Dependencies:   deps,
	}, httptransport.Services{
		Auth:     service.NewAuthService(cfg.Auth, repos.users, tokens),
		Users:    service.NewUserService(repos.users, cfg.Requests),
		Requests: requestService,
		OTP: service.NewOTPService(service.OTPDependencies{
			Requests: requestService,
			Limiter:  limiter,
			Metrics:  metrics,
			Logger:   logger,
		}),
		Dashboard: service.NewDashboardService(repos.requests, repos.users, nil),
		Guard:     auth.NewGuard(tokens, repos.users),
	}, logger, metrics)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
