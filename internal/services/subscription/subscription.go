// Package subscription ведёт учёт тарифов и оплаченных подписок.
// Подписка активна, пока её статус ACTIVE и дата окончания не наступила;
// фоновой смены статуса по истечении нет.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// DaysPerMonth длина расчётного месяца подписки в днях.
const DaysPerMonth = 30

const plansCacheKey = "plans:all"

// Repository хранилище тарифов и подписок.
type Repository interface {
	HasActiveSubscription(ctx context.Context, userID int64, now time.Time) (bool, error)
	ListSubscriptionsByUser(ctx context.Context, userID int64) ([]*models.Subscription, error)
	CancelSubscription(ctx context.Context, id, userID int64) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, f models.SubscriptionFilter) (*models.PageResult[*models.Subscription], error)
	SeedPlans(ctx context.Context, plans []models.Plan) error
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Ledger реализует учёт подписок и каталог тарифов с кэшированием.
type Ledger struct {
	repo     Repository
	cache    Cache
	events   EventPublisher
	clock    clock.Clock
	log      *slog.Logger
	plansTTL time.Duration
}

func New(log *slog.Logger, repo Repository, cache Cache, events EventPublisher, clk clock.Clock, plansTTL time.Duration) *Ledger {
	return &Ledger{
		repo:     repo,
		cache:    cache,
		events:   events,
		clock:    clk,
		log:      log,
		plansTTL: plansTTL,
	}
}

// EndDate дата окончания подписки на months расчётных месяцев от start.
func EndDate(start time.Time, months int) time.Time {
	return start.Add(time.Duration(months*DaysPerMonth) * 24 * time.Hour)
}

// DefaultPlans стандартные тарифы. priceIDs сопоставляет имя тарифа с
// идентификатором цены у провайдера.
func DefaultPlans(currency string, priceIDs map[string]string) []models.Plan {
	plans := []models.Plan{
		{Name: "Standard Monthly", DurationMonths: 1, Price: 5000},
		{Name: "Standard 6 Months", DurationMonths: 6, Price: 30000},
		{Name: "Standard Yearly", DurationMonths: 12, Price: 50000},
	}
	for i := range plans {
		plans[i].Currency = currency
		plans[i].ProviderPriceID = priceIDs[plans[i].Name]
	}
	return plans
}

// HasActiveSubscription сообщает, есть ли у пользователя действующая подписка в момент now.
func (l *Ledger) HasActiveSubscription(ctx context.Context, userID int64, now time.Time) (bool, error) {
	const op = "subscription.HasActiveSubscription"

	ok, err := l.repo.HasActiveSubscription(ctx, userID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Mine возвращает подписки пользователя с признаком активности на текущий момент.
func (l *Ledger) Mine(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	const op = "subscription.Mine"

	subs, err := l.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := l.clock.Now()
	for _, s := range subs {
		s.Active = s.IsActive(now)
	}
	return subs, nil
}

// List возвращает страницу подписок всех пользователей для администратора.
func (l *Ledger) List(ctx context.Context, f models.SubscriptionFilter) (*models.PageResult[*models.Subscription], error) {
	const op = "subscription.List"

	switch f.Status {
	case "", models.SubscriptionActive, models.SubscriptionExpired, models.SubscriptionCanceled:
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", f.Status))
	}

	res, err := l.repo.ListSubscriptions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := l.clock.Now()
	for _, s := range res.Results {
		s.Active = s.IsActive(now)
	}
	return res, nil
}

// Cancel отменяет активную подписку пользователя.
func (l *Ledger) Cancel(ctx context.Context, id, userID int64) (*models.Subscription, error) {
	const op = "subscription.Cancel"

	sub, err := l.repo.CancelSubscription(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := l.clock.Now()
	event := models.SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		EndDate:        sub.EndDate,
		OccurredAt:     now,
	}
	if err := l.events.Publish(ctx, rabbitmq.KeySubscriptionCancelled, event); err != nil {
		l.log.Warn("failed to publish subscription event", sl.Err(err))
	}
	return sub, nil
}

// Plans возвращает каталог тарифов. Ошибки кэша не мешают ответу.
func (l *Ledger) Plans(ctx context.Context) ([]*models.Plan, error) {
	const op = "subscription.Plans"

	var cached []*models.Plan
	found, err := l.cache.Get(ctx, plansCacheKey, &cached)
	if err != nil {
		l.log.Warn("plans cache read failed", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := l.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := l.cache.Set(ctx, plansCacheKey, plans, l.plansTTL); err != nil {
		l.log.Warn("plans cache write failed", sl.Err(err))
	}
	return plans, nil
}

// Plan возвращает тариф по ID из хранилища.
func (l *Ledger) Plan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "subscription.Plan"

	p, err := l.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SeedDefaultPlans идемпотентно создаёт стандартные тарифы и сбрасывает кэш каталога.
func (l *Ledger) SeedDefaultPlans(ctx context.Context, currency string, priceIDs map[string]string) error {
	const op = "subscription.SeedDefaultPlans"

	if err := l.repo.SeedPlans(ctx, DefaultPlans(currency, priceIDs)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := l.cache.Invalidate(ctx, plansCacheKey); err != nil {
		l.log.Warn("plans cache invalidate failed", sl.Err(err))
	}
	return nil
}
