// Package analytics отдаёт сводные показатели площадки для администратора.
package analytics

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// Repository источник сводки.
type Repository interface {
	AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary возвращает число пользователей, техников на одобрении и выручку.
func (s *Service) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	const op = "analytics.Summary"

	sum, err := s.repo.AnalyticsSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}
