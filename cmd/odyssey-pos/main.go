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

	"github.com/odyssey-pos/odyssey-pos/internal/app"
	"github.com/odyssey-pos/odyssey-pos/internal/integration"
	"github.com/odyssey-pos/odyssey-pos/internal/inventory"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/kafka"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/sales"
	"github.com/odyssey-pos/odyssey-pos/jobs"
)

const serviceName = "odyssey-pos"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	var publisher integration.EventPublisher
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, serviceName, logger)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close", slog.Any("error", err))
			}
		}()
		publisher = producer
	} else {
		logger.Info("kafka brokers not configured, event publishing disabled")
	}

	hooks := integration.NewHooks(publisher, jobClient, integration.Topics{
		Sales:     cfg.KafkaTopicSales,
		Inventory: cfg.KafkaTopicInventory,
	})
	metrics := observability.NewMetrics()

	productsService := products.NewService(products.NewRepository(dbpool))
	salesService := sales.NewService(sales.NewRepository(dbpool), sales.ServiceConfig{
		DefaultTaxRate: &cfg.DefaultTaxRate,
		EnforceStock:   cfg.SaleEnforceStock,
	}, hooks, metrics, logger)
	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), hooks, metrics, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SalesHandler:     sales.NewHandler(logger, salesService),
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		ProductsHandler:  products.NewHandler(logger, productsService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
		DB:               dbpool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
