package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fixkit/repair-service/internal/api/http"
	"github.com/fixkit/repair-service/internal/api/http/handlers"
	"github.com/fixkit/repair-service/internal/auth"
	"github.com/fixkit/repair-service/internal/cache"
	"github.com/fixkit/repair-service/internal/config"
	"github.com/fixkit/repair-service/internal/events"
	"github.com/fixkit/repair-service/internal/observability"
	"github.com/fixkit/repair-service/internal/persistence"
	"github.com/fixkit/repair-service/internal/repository"
	"github.com/fixkit/repair-service/internal/service"
	"github.com/fixkit/repair-service/internal/worker"
)

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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	loanRepo := repository.NewLoanRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	if cfg.AMQP.URL != "" {
		bridge, err := events.NewRabbitBridge(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		defer bridge.Close() //nolint:errcheck
		bridge.Attach(dispatcher)
	}

	ticketCache := cache.NewTicketCache(redis.CacheClient(), cfg.Redis.CacheTTL(), logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		UserRepo:    userRepo,
		Cache:       ticketCache,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	loanService := service.NewLoanService(service.LoanDependencies{
		EquipmentRepo: equipmentRepo,
		LoanRepo:      loanRepo,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartOverdueSweeper(ctx, loanService, cfg.Worker.SweepInterval(), logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Equipment:      handlers.NewEquipmentHandler(loanService),
		Users:          handlers.NewUsersHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
