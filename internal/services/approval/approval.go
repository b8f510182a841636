// Package approval реализует административные переходы профиля техника:
// одобрение, отзыв одобрения, пауза и возобновление.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/metrics"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
	"github.com/magabrotheeeer/technician-marketplace/internal/services/eligibility"
)

// TrialPeriod длительность пробного периода, выдаваемого при первом одобрении.
const TrialPeriod = 30 * 24 * time.Hour

// Repository хранилище профилей техников.
type Repository interface {
	ApproveTechnician(ctx context.Context, id int64, trialEnd time.Time) (time.Time, error)
	SetApproved(ctx context.Context, id int64, approved bool) error
	SetPaused(ctx context.Context, id int64, paused bool) error
	EnsureTechnicianProfiles(ctx context.Context) (int64, error)
	ListPendingTechnicians(ctx context.Context, page models.Page) (*models.PageResult[*models.TechnicianProfile], error)
	ListTechnicians(ctx context.Context, f models.AdminTechnicianFilter) (*models.PageResult[*models.TechnicianProfile], error)
	GetProfileByID(ctx context.Context, id int64) (*models.TechnicianProfile, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type Service struct {
	repo   Repository
	events EventPublisher
	clock  clock.Clock
	log    *slog.Logger
}

func New(log *slog.Logger, repo Repository, events EventPublisher, clk clock.Clock) *Service {
	return &Service{
		repo:   repo,
		events: events,
		clock:  clk,
		log:    log,
	}
}

// Approve одобряет техника, снимает паузу и выдаёт пробный период, если его ещё
// не было. Повторное одобрение не продлевает уже назначенный период.
func (s *Service) Approve(ctx context.Context, id int64) (time.Time, error) {
	const op = "approval.Approve"

	now := s.clock.Now()
	trialEnd, err := s.repo.ApproveTechnician(ctx, id, now.Add(TrialPeriod))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	s.transitioned(ctx, id, "approved", rabbitmq.KeyTechnicianApproved, &trialEnd, now)
	return trialEnd, nil
}

// Revoke снимает одобрение. Пауза и пробный период не меняются.
func (s *Service) Revoke(ctx context.Context, id int64) error {
	const op = "approval.Revoke"

	if err := s.repo.SetApproved(ctx, id, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.transitioned(ctx, id, "revoked", rabbitmq.KeyTechnicianRevoked, nil, s.clock.Now())
	return nil
}

// Pause ставит профиль на паузу.
func (s *Service) Pause(ctx context.Context, id int64) error {
	const op = "approval.Pause"

	if err := s.repo.SetPaused(ctx, id, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.transitioned(ctx, id, "paused", rabbitmq.KeyTechnicianPaused, nil, s.clock.Now())
	return nil
}

// Resume снимает паузу. Одобрение не меняется.
func (s *Service) Resume(ctx context.Context, id int64) error {
	const op = "approval.Resume"

	if err := s.repo.SetPaused(ctx, id, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.transitioned(ctx, id, "resumed", rabbitmq.KeyTechnicianResumed, nil, s.clock.Now())
	return nil
}

// Pending создаёт недостающие профили техников и возвращает неодобренные.
func (s *Service) Pending(ctx context.Context, page models.Page) (*models.PageResult[*models.TechnicianView], error) {
	const op = "approval.Pending"

	created, err := s.repo.EnsureTechnicianProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if created > 0 {
		s.log.Info("materialized missing technician profiles", slog.Int64("count", created))
	}

	res, err := s.repo.ListPendingTechnicians(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.views(res), nil
}

// Technicians возвращает все профили независимо от видимости работодателям.
func (s *Service) Technicians(ctx context.Context, f models.AdminTechnicianFilter) (*models.PageResult[*models.TechnicianView], error) {
	const op = "approval.Technicians"

	res, err := s.repo.ListTechnicians(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.views(res), nil
}

// Technician возвращает профиль по ID без проверки видимости.
func (s *Service) Technician(ctx context.Context, id int64) (*models.TechnicianView, error) {
	const op = "approval.Technician"

	p, err := s.repo.GetProfileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return eligibility.View(p, s.clock.Now()), nil
}

func (s *Service) views(res *models.PageResult[*models.TechnicianProfile]) *models.PageResult[*models.TechnicianView] {
	return &models.PageResult[*models.TechnicianView]{
		Count:    res.Count,
		Page:     res.Page,
		PageSize: res.PageSize,
		Results:  eligibility.Views(res.Results, s.clock.Now()),
	}
}

func (s *Service) transitioned(ctx context.Context, id int64, action, key string, trialEnd *time.Time, now time.Time) {
	metrics.RecordApprovalTransition(action)
	s.log.Info("technician transition",
		slog.Int64("technician_id", id),
		slog.String("action", action),
	)

	event := models.TechnicianEvent{
		TechnicianID: id,
		Action:       action,
		TrialEndsAt:  trialEnd,
		OccurredAt:   now,
	}
	if err := s.events.Publish(ctx, key, event); err != nil {
		s.log.Warn("failed to publish technician event", slog.String("key", key), sl.Err(err))
	}
}
