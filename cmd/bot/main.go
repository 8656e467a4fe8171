package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/p2p-exchange-bot/internal/api/http"
	"github.com/spec-kit/p2p-exchange-bot/internal/api/http/handlers"
	"github.com/spec-kit/p2p-exchange-bot/internal/config"
	"github.com/spec-kit/p2p-exchange-bot/internal/events"
	"github.com/spec-kit/p2p-exchange-bot/internal/observability"
	"github.com/spec-kit/p2p-exchange-bot/internal/persistence"
	"github.com/spec-kit/p2p-exchange-bot/internal/repository"
	"github.com/spec-kit/p2p-exchange-bot/internal/service"
	"github.com/spec-kit/p2p-exchange-bot/internal/telegram"
	"github.com/spec-kit/p2p-exchange-bot/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	offerRepo := repository.NewOfferRepository(pool)
	dealRepo := repository.NewDealRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	userService := service.NewUserService(userRepo, dispatcher)
	offerService := service.NewOfferService(offerRepo, dispatcher)
	dealService := service.NewDealService(service.DealDependencies{
		DealRepo:   dealRepo,
		OfferRepo:  offerRepo,
		Dispatcher: dispatcher,
	})
	exchangeService := service.NewExchangeService(service.ExchangeDependencies{
		Users:          userService,
		Offers:         offerService,
		Deals:          dealService,
		OffersPageSize: cfg.Telegram.OffersPageSize,
		DealsPageSize:  cfg.Telegram.DealsPageSize,
	})

	tgClient := telegram.NewClient(cfg.Telegram, logger)
	notifier := service.NewNotifierService(dispatcher, userRepo, tgClient, logger)
	worker.StartNotifierWorker(notifier)

	if cfg.Telegram.RegisterWebhook && cfg.Telegram.WebhookURL != "" {
		if err := tgClient.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			logger.Warn("failed to register webhook", zap.Error(err))
		} else {
			logger.Info("webhook registered", zap.String("url", cfg.Telegram.WebhookURL))
		}
	}

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	webhookHandler := handlers.NewWebhookHandler(exchangeService, redis, tgClient, metrics, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        healthHandler,
		Webhook:       webhookHandler,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
