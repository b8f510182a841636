// Package scheduler публикует напоминания об окончании пробного периода,
// подписки и срока действия документа. Статусы в хранилище не меняются.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/metrics"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// Repository выборки кандидатов на напоминание в интервале [from, to].
type Repository interface {
	ListTrialsEnding(ctx context.Context, from, to time.Time) ([]models.Reminder, error)
	ListSubscriptionsEnding(ctx context.Context, from, to time.Time) ([]models.Reminder, error)
	ListDocumentsExpiring(ctx context.Context, from, to time.Time) ([]models.Reminder, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type source struct {
	kind       string
	routingKey string
	list       func(ctx context.Context, from, to time.Time) ([]models.Reminder, error)
}

// SchedulerService по расписанию рассылает напоминания в брокер.
type SchedulerService struct {
	repo   Repository
	events EventPublisher
	clock  clock.Clock
	within time.Duration
	log    *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewSchedulerService создает новый экземпляр SchedulerService. within задаёт,
// за сколько до наступления срока отправляется напоминание.
func NewSchedulerService(log *slog.Logger, repo Repository, events EventPublisher, clk clock.Clock, within time.Duration) *SchedulerService {
	return &SchedulerService{
		repo:   repo,
		events: events,
		clock:  clk,
		within: within,
		log:    log,
	}
}

func (s *SchedulerService) sources() []source {
	return []source{
		{kind: models.ReminderTrialEnding, routingKey: rabbitmq.KeyReminderTrialEnding, list: s.repo.ListTrialsEnding},
		{kind: models.ReminderSubscriptionEnding, routingKey: rabbitmq.KeyReminderSubscriptionEnding, list: s.repo.ListSubscriptionsEnding},
		{kind: models.ReminderDocumentExpiring, routingKey: rabbitmq.KeyReminderDocumentExpiring, list: s.repo.ListDocumentsExpiring},
	}
}

// RunOnce публикует все напоминания со сроком в ближайшие within и
// возвращает число опубликованных. Сбой одной выборки не останавливает остальные.
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	const op = "scheduler.RunOnce"

	from := s.clock.Now()
	to := from.Add(s.within)

	var (
		total int
		errs  []error
	)
	for _, src := range s.sources() {
		reminders, err := src.list(ctx, from, to)
		if err != nil {
			s.log.Error("failed to find reminders", slog.String("kind", src.kind), sl.Err(err))
			errs = append(errs, err)
			continue
		}

		published := 0
		for _, r := range reminders {
			if err := s.events.Publish(ctx, src.routingKey, r); err != nil {
				s.log.Error("failed to publish message", slog.String("kind", src.kind), sl.Err(err))
				errs = append(errs, err)
				continue
			}
			published++
		}
		metrics.RecordReminders(src.kind, published)
		s.log.Info("reminders published", slog.String("kind", src.kind), slog.Int("count", published))
		total += published
	}

	if len(errs) > 0 {
		return total, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return total, nil
}

// Start запускает рассылку по cron-выражению spec (5 полей).
func (s *SchedulerService) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("reminder run finished with errors", sl.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.log.Info("reminder scheduler started", slog.String("spec", spec))
	return nil
}

// Stop останавливает расписание и ждёт завершения текущего запуска.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.log.Info("reminder scheduler stopped")
}
