// Package review управляет отзывами работодателей и агрегированным рейтингом
// техника. Рейтинг пересчитывается до того, как запись подтверждена клиенту.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// Repository выполняет запись отзыва и пересчёт рейтинга в одной транзакции.
type Repository interface {
	CreateReview(ctx context.Context, r models.Review) (*models.Review, rating.Stats, error)
	DeleteReview(ctx context.Context, reviewID, reviewerID int64) (int64, rating.Stats, error)
	RecomputeRating(ctx context.Context, technicianID int64) (rating.Stats, error)
	ListReviews(ctx context.Context, technicianID int64, page models.Page) (*models.PageResult[*models.Review], error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func New(log *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, log: log}
}

// Create сохраняет отзыв reviewerID о технике technicianID.
func (s *Service) Create(ctx context.Context, technicianID, reviewerID int64, req models.DummyReview) (*models.Review, rating.Stats, error) {
	const op = "review.Create"

	if !rating.Valid(req.Rating) {
		return nil, rating.Stats{}, apperr.Validation(
			fmt.Sprintf("rating must be between %d and %d", rating.MinRating, rating.MaxRating))
	}

	r, stats, err := s.repo.CreateReview(ctx, models.Review{
		TechnicianID: technicianID,
		ReviewerID:   reviewerID,
		Rating:       req.Rating,
		Comment:      strings.TrimSpace(req.Comment),
	})
	if err != nil {
		return nil, rating.Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("review created",
		slog.Int64("technician_id", technicianID),
		slog.Float64("rating_avg", stats.Avg),
		slog.Int("rating_count", stats.Count),
	)
	return r, stats, nil
}

// Delete удаляет собственный отзыв reviewerID.
func (s *Service) Delete(ctx context.Context, reviewID, reviewerID int64) (rating.Stats, error) {
	const op = "review.Delete"

	technicianID, stats, err := s.repo.DeleteReview(ctx, reviewID, reviewerID)
	if err != nil {
		return rating.Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("review deleted",
		slog.Int64("technician_id", technicianID),
		slog.Int("rating_count", stats.Count),
	)
	return stats, nil
}

// Recompute пересчитывает рейтинг по текущему набору отзывов.
func (s *Service) Recompute(ctx context.Context, technicianID int64) (rating.Stats, error) {
	const op = "review.Recompute"

	stats, err := s.repo.RecomputeRating(ctx, technicianID)
	if err != nil {
		return rating.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func (s *Service) List(ctx context.Context, technicianID int64, page models.Page) (*models.PageResult[*models.Review], error) {
	const op = "review.List"

	res, err := s.repo.ListReviews(ctx, technicianID, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
