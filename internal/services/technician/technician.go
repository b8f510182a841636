// Package technician реализует чтение профилей техников и самообслуживание
// техника над собственным профилем.
package technician

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/clock"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
	"github.com/magabrotheeeer/technician-marketplace/internal/services/eligibility"
)

// Repository хранилище профилей техников.
type Repository interface {
	ListVisibleTechnicians(ctx context.Context, f models.TechnicianFilter, now time.Time) (*models.PageResult[*models.TechnicianProfile], error)
	GetApprovedTechnician(ctx context.Context, id int64) (*models.TechnicianProfile, error)
	GetOrCreateProfile(ctx context.Context, userID int64) (*models.TechnicianProfile, error)
	SetAutoPause(ctx context.Context, profileID int64, paused bool) (bool, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate, now time.Time) (*models.TechnicianProfile, error)
}

// AutoPauser вычисляет желаемое значение флага паузы.
type AutoPauser interface {
	ComputeAutoPause(ctx context.Context, p *models.TechnicianProfile, now time.Time) (bool, error)
}

type Service struct {
	repo   Repository
	pauser AutoPauser
	clock  clock.Clock
	log    *slog.Logger
}

func New(log *slog.Logger, repo Repository, pauser AutoPauser, clk clock.Clock) *Service {
	return &Service{
		repo:   repo,
		pauser: pauser,
		clock:  clk,
		log:    log,
	}
}

// ListVisible возвращает страницу техников, видимых работодателям.
func (s *Service) ListVisible(ctx context.Context, f models.TechnicianFilter) (*models.PageResult[*models.TechnicianView], error) {
	const op = "technician.ListVisible"

	now := s.clock.Now()
	res, err := s.repo.ListVisibleTechnicians(ctx, f, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.PageResult[*models.TechnicianView]{
		Count:    res.Count,
		Page:     res.Page,
		PageSize: res.PageSize,
		Results:  eligibility.Views(res.Results, now),
	}, nil
}

// Detail возвращает одобренный профиль. Пробный период и подписка не
// проверяются, в отличие от списков.
func (s *Service) Detail(ctx context.Context, id int64) (*models.TechnicianView, error) {
	const op = "technician.Detail"

	p, err := s.repo.GetApprovedTechnician(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return eligibility.View(p, s.clock.Now()), nil
}

// MyProfile возвращает профиль техника, создавая его при отсутствии, и
// приводит флаг паузы в соответствие с пробным периодом и подпиской.
func (s *Service) MyProfile(ctx context.Context, userID int64) (*models.TechnicianView, error) {
	const op = "technician.MyProfile"

	p, err := s.repo.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock.Now()
	if err := s.applyAutoPause(ctx, p, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return eligibility.View(p, now), nil
}

// UpdateMyProfile применяет изменения к профилю техника.
func (s *Service) UpdateMyProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.TechnicianView, error) {
	const op = "technician.UpdateMyProfile"

	now := s.clock.Now()
	p, err := s.repo.UpdateProfile(ctx, userID, upd, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.applyAutoPause(ctx, p, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return eligibility.View(p, now), nil
}

func (s *Service) applyAutoPause(ctx context.Context, p *models.TechnicianProfile, now time.Time) error {
	paused, err := s.pauser.ComputeAutoPause(ctx, p, now)
	if err != nil {
		return err
	}
	if paused == p.IsPaused {
		return nil
	}

	changed, err := s.repo.SetAutoPause(ctx, p.ID, paused)
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("technician pause flag recomputed",
			slog.Int64("technician_id", p.ID),
			slog.Bool("paused", paused),
		)
	}
	p.IsPaused = paused
	return nil
}
