package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/table_reservation/internal/app"
	"github.com/Freeeeeet/table_reservation/internal/config"
	"github.com/Freeeeeet/table_reservation/internal/notify"
	"github.com/Freeeeeet/table_reservation/internal/queue"
	"github.com/Freeeeeet/table_reservation/internal/repository"
	"github.com/Freeeeeet/table_reservation/internal/repository/memory"
	"github.com/Freeeeeet/table_reservation/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// storage is everything the service and the notifier read and write.
type storage struct {
	reservations service.ReservationStore
	catalog interface {
		service.Catalog
		notify.RestaurantReader
	}
	tx    service.Transactor
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Info("No .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting table reservation service",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
	)

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	guard := service.NewConflictGuard(store.tx, service.GuardConfig{
		MaxAttempts: cfg.BookingMaxAttempts,
		BaseDelay:   cfg.BookingRetryBase,
		MaxDelay:    cfg.BookingRetryMax,
	}, logger)

	var sinks service.FanoutSink

	if cfg.RabbitMQURL != "" {
		publisher, err := queue.Dial(cfg.RabbitMQURL, cfg.ReservationExchange, logger)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
		logger.Info("Publishing reservation events", zap.String("exchange", cfg.ReservationExchange))
	}

	svc := service.NewReservationService(store.reservations, store.catalog, guard, &sinks, service.SystemClock, logger)

	// the notifier reads through the service, so it joins the sinks afterwards
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		notifier := notify.NewNotifier(b, store.catalog, svc, logger)
		sinks = append(sinks, notifier)
		logger.Info("Telegram staff alerts enabled")

		scheduler := app.NewScheduler(notifier, cfg.DigestInterval, logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logger.Info("Table reservation service is ready")
	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, reservations are lost on restart")
		s := memory.NewStore()
		return &storage{reservations: s, catalog: s, tx: s, close: func() {}}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &storage{
		reservations: repository.NewReservationRepository(pool),
		catalog:      repository.NewCatalog(pool),
		tx:           repository.NewTransactor(pool),
		close:        pool.Close,
	}, nil
}
