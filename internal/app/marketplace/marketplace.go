// Package marketplace собирает HTTP-приложение маркетплейса: хранилище,
// кэш каталога тарифов, брокер событий, сервисы и маршруты.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/technician-marketplace/internal/cache"
	"github.com/magabrotheeeer/technician-marketplace/internal/config"
	"github.com/magabrotheeeer/technician-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/jwt"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/password"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/migrations"
	"github.com/magabrotheeeer/technician-marketplace/internal/paymentprovider"
	analyticsservice "github.com/magabrotheeeer/technician-marketplace/internal/services/analytics"
	approvalservice "github.com/magabrotheeeer/technician-marketplace/internal/services/approval"
	authservice "github.com/magabrotheeeer/technician-marketplace/internal/services/auth"
	"github.com/magabrotheeeer/technician-marketplace/internal/services/eligibility"
	paymentservice "github.com/magabrotheeeer/technician-marketplace/internal/services/payment"
	reviewservice "github.com/magabrotheeeer/technician-marketplace/internal/services/review"
	subservice "github.com/magabrotheeeer/technician-marketplace/internal/services/subscription"
	techservice "github.com/magabrotheeeer/technician-marketplace/internal/services/technician"
	"github.com/magabrotheeeer/technician-marketplace/internal/storage/repository"
)

const (
	shutdownTimeout        = 15 * time.Second
	limiterCleanupInterval = 5 * time.Minute
)

// EventPublisher общий издатель доменных событий приложения.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	limiter *middlewarectx.ClientLimiter
	closers []io.Closer
}

// New подключает хранилище, применяет миграции, заполняет тарифы и создаёт
// администратора. Redis и RabbitMQ необязательны: без них тарифы не
// кэшируются, а события не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{logger: logger, db: db}

	var plansCache subservice.Cache = cache.Nop{}
	if cfg.RedisAddress != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, plan catalog is not cached", sl.Err(err))
		} else {
			plansCache = cacheRedis
			app.closers = append(app.closers, cacheRedis)
		}
	}

	events, closers, err := connectEvents(cfg.RabbitMQ, logger)
	if err != nil {
		app.close()
		return nil, err
	}
	app.closers = append(app.closers, closers...)

	clk := clock.Real{}
	ledger := subservice.New(logger, db, plansCache, events, clk, cfg.PlansTTL)
	if err := ledger.SeedDefaultPlans(ctx, cfg.Currency, cfg.PlanPriceIDs); err != nil {
		app.close()
		return nil, fmt.Errorf("seed plans: %w", err)
	}

	authService := authservice.NewAuthService(logger, db, password.NewHasher(0), jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL))
	if cfg.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			app.close()
			return nil, fmt.Errorf("ensure admin: %w", err)
		}
	}

	var provider paymentservice.CheckoutProvider
	if cfg.ProviderKey != "" {
		provider = paymentprovider.NewClient(cfg.ProviderKey, cfg.ProviderBaseURL)
	} else {
		logger.Warn("payment provider is not configured, checkout runs in mock mode")
	}

	engine := eligibility.New(ledger)
	services := Services{
		Auth:          authService,
		Technicians:   techservice.New(logger, db, engine, clk),
		Reviews:       reviewservice.New(logger, db),
		Subscriptions: ledger,
		Payments: paymentservice.New(logger, db, ledger, db, provider, events, clk, paymentservice.RedirectURLs{
			Success: cfg.SuccessURL,
			Cancel:  cfg.CancelURL,
		}),
		Approval:  approvalservice.New(logger, db, events, clk),
		Analytics: analyticsservice.New(db),
		DB:        db,
	}

	app.limiter = middlewarectx.NewClientLimiter(cfg.RPS, cfg.Burst)
	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, RouteOptions{
		WebhookSecret: cfg.WebhookSecret,
		Limiter:       app.limiter,
		Clock:         clk,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// connectEvents подключается к RabbitMQ и объявляет топологию событий.
// Пустой URL отключает публикацию.
func connectEvents(cfg config.RabbitMQ, logger *slog.Logger) (EventPublisher, []io.Closer, error) {
	if cfg.RabbitMQURL == "" {
		logger.Warn("rabbitmq is not configured, domain events are dropped")
		return rabbitmq.NopPublisher{}, nil, nil
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.Retries, cfg.Delay)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.EventsExchange, rabbitmq.EventQueues())
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	publisher := rabbitmq.NewPublisher(ch, rabbitmq.EventsExchange)
	return publisher, []io.Closer{publisher, conn}, nil
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	go a.limiter.RunCleanup(ctx, limiterCleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
