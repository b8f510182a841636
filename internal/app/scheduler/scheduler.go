// Package scheduler собирает воркер напоминаний: по расписанию он находит
// заканчивающиеся пробные периоды, подписки и документы и публикует события.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/technician-marketplace/internal/config"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/technician-marketplace/internal/services/scheduler"
	"github.com/magabrotheeeer/technician-marketplace/internal/storage/repository"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	cronSpec         string
	db               *repository.Storage
	conn             *amqp.Connection
	publisher        *rabbitmq.Publisher
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range dbReadyAttempts {
		if err := repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика. Миграции применяет
// основное приложение, поэтому планировщик только ждёт готовности схемы.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("rabbitmq url is required for the scheduler")
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.Retries, cfg.Delay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.EventsExchange, rabbitmq.EventQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(ch, rabbitmq.EventsExchange)

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(publisher, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(publisher, conn, logger)
		return nil, err
	}

	schedulerService := schedulerservice.NewSchedulerService(logger, db, publisher, clock.Real{}, cfg.RemindWithin)

	return &App{
		schedulerService: schedulerService,
		cronSpec:         cfg.CronSpec,
		db:               db,
		conn:             conn,
		publisher:        publisher,
		logger:           logger,
	}, nil
}

func closeResources(publisher *rabbitmq.Publisher, conn *amqp.Connection, logger *slog.Logger) {
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает расписание и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.schedulerService.Start(ctx, a.cronSpec); err != nil {
		closeResources(a.publisher, a.conn, a.logger)
		_ = a.db.Close()
		return err
	}

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")
	a.schedulerService.Stop()

	closeResources(a.publisher, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}

// RunOnce выполняет один проход рассылки без расписания.
func (a *App) RunOnce(ctx context.Context) (int, error) {
	defer func() {
		closeResources(a.publisher, a.conn, a.logger)
		_ = a.db.Close()
	}()
	return a.schedulerService.RunOnce(ctx)
}
