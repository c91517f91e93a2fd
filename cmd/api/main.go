package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/liveflow/donor-service/internal/api/http"
	"github.com/liveflow/donor-service/internal/api/http/handlers"
	"github.com/liveflow/donor-service/internal/auth"
	"github.com/liveflow/donor-service/internal/config"
	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/observability"
	"github.com/liveflow/donor-service/internal/payment"
	"github.com/liveflow/donor-service/internal/persistence"
	"github.com/liveflow/donor-service/internal/repository"
	"github.com/liveflow/donor-service/internal/repository/mongostore"
	"github.com/liveflow/donor-service/internal/service"
	"github.com/liveflow/donor-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, storeCheck, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := newDispatcher(cfg.Redis, redis, logger)
	metrics := observability.NewMetrics()

	verifier, err := newVerifier(cfg.Identity)
	if err != nil {
		logger.Fatal("failed to init identity verifier", zap.Error(err))
	}
	if cfg.Payment.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not provided; checkout will fail")
	}
	processor := payment.NewStripeProcessor(cfg.Payment, nil)

	policy := auth.NewPolicy(cfg.Policy.EnforceRoles, store.Users, logger)

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   store.Users,
		Policy:     policy,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	requestService := service.NewBloodRequestService(service.BloodRequestDependencies{
		RequestRepo: store.Requests,
		DeletedRepo: store.Deleted,
		Transactor:  store.Tx,
		Policy:      policy,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	donationService := service.NewDonationService(service.DonationDependencies{
		DonationRepo: store.Donations,
		Processor:    processor,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	statsService := service.NewStatsService(store)
	notificationService := service.NewNotificationService(dispatcher, logger, metrics, cfg.Notification)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := worker.StartNotificationWorker(workerCtx, notificationService, dispatcher, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	checks := []handlers.Check{storeCheck}
	if redis != nil {
		checks = append(checks, handlers.Check{Name: "redis", Ping: redis.Ping})
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checks...),
		Users:             handlers.NewUsersHandler(userService),
		Requests:          handlers.NewBloodRequestsHandler(requestService),
		Donations:         handlers.NewDonationsHandler(donationService, statsService),
		AuthMiddleware:    auth.NewAuthMiddleware(verifier, logger),
		Policy:            policy,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		AllRequestsPublic: cfg.Policy.AllRequestsPublic,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopWorker()
	<-workerDone
}

// openStore connects the configured backend and returns its repositories, a
// readiness probe and a release function.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, handlers.Check, func()) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPostgresStore(pg.PoolHandle()), handlers.Check{Name: "postgres", Ping: pg.Ping}, pg.Close

	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), handlers.Check{Name: "memory", Ping: func(context.Context) error { return nil }}, func() {}

	default:
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongodb", zap.Error(err))
		}
		if err := mongostore.EnsureIndexes(ctx, mg.Database); err != nil {
			logger.Fatal("failed to ensure indexes", zap.Error(err))
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mg.Close(closeCtx)
		}
		return mongostore.New(mg.Database, logger), handlers.Check{Name: "mongodb", Ping: mg.Ping}, closeFn
	}
}

func newDispatcher(cfg config.RedisConfig, redis *persistence.Redis, logger *zap.Logger) events.Dispatcher {
	if redis == nil {
		return events.NewQueueDispatcher(cfg.QueueSize, logger)
	}
	dispatcher, err := events.NewStreamDispatcher(redis.Client, events.StreamConfig{
		Stream: cfg.EventsStream,
		Group:  cfg.ConsumerGroup,
	}, logger)
	if err != nil {
		logger.Fatal("failed to init event stream", zap.Error(err))
	}
	return dispatcher
}

func newVerifier(cfg config.IdentityConfig) (auth.Verifier, error) {
	if cfg.Provider == config.IdentityLocal {
		return auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()), nil
	}
	return auth.NewFirebaseVerifier(auth.FirebaseConfig{
		ProjectID: cfg.ProjectID,
		CertURL:   cfg.CertURL,
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
