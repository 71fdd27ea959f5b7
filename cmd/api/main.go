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

	httptransport "github.com/spec-kit/order-service/internal/api/http"
	"github.com/spec-kit/order-service/internal/api/http/handlers"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/config"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/messaging"
	"github.com/spec-kit/order-service/internal/observability"
	"github.com/spec-kit/order-service/internal/persistence"
	"github.com/spec-kit/order-service/internal/repository"
	"github.com/spec-kit/order-service/internal/repository/memory"
	"github.com/spec-kit/order-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users    repository.UserRepository
	orders   repository.OrderRepository
	archives repository.ArchiveRepository
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

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout())
	store, err := persistence.NewMongo(connectCtx, cfg.Mongo, logger)
	if err != nil {
		connectCancel()
		logger.Fatal("failed to connect mongodb", zap.Error(err))
	}
	if err := persistence.EnsureIndexes(connectCtx, store, persistence.RequiredIndexes(cfg.Mongo), logger); err != nil {
		connectCancel()
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}
	connectCancel()

	redis := persistence.NewRedis(cfg.Redis, logger)

	nats, err := messaging.NewNatsPublisher(ctx, cfg.NATS, cfg.App.Name, logger)
	if err != nil {
		logger.Warn("nats event sink unavailable", zap.Error(err))
	}

	repos := buildRepositories(cfg.Mongo, store, logger)

	dispatcher := events.NewInMemoryDispatcher()
	var sinks []service.EventSink
	if sink := service.NewRedisSink(redis, cfg.Redis.EventsChannel); sink != nil {
		sinks = append(sinks, sink)
	}
	if nats != nil {
		sinks = append(sinks, nats)
	}
	service.NewNotificationService(dispatcher, logger, sinks...).RegisterHandlers()

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:   repos.orders,
		ArchiveRepo: repos.archives,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	verifier, err := auth.NewJWTVerifier(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init token verifier", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"mongodb": store,
			"redis":   redis,
		}, metrics),
		Users:                   handlers.NewUsersHandler(userService),
		Orders:                  handlers.NewOrdersHandler(orderService),
		AuthMiddleware:          auth.NewAuthMiddleware(verifier),
		OrderDetailsRequireAuth: cfg.Policy.OrderDetailsRequireAuth,
		Logger:                  logger,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	nats.Close()
	redis.Close()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := store.Close(closeCtx); err != nil {
		logger.Warn("mongodb disconnect", zap.Error(err))
	}
}

func buildRepositories(cfg config.MongoConfig, store *persistence.Mongo, logger *zap.Logger) repositories {
	if !store.Enabled() {
		logger.Warn("MONGO_URI not provided; using in-memory store, data is lost on restart")
		return repositories{
			users:    memory.NewUserRepository(),
			orders:   memory.NewOrderRepository(),
			archives: memory.NewArchiveRepository(),
		}
	}
	return repositories{
		users:    repository.NewUserRepository(store.Collection(cfg.UsersCollection)),
		orders:   repository.NewOrderRepository(store.Collection(cfg.OrdersCollection)),
		archives: repository.NewArchiveRepository(store.Collection(cfg.ArchiveCollection)),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
