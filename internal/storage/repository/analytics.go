package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// AnalyticsSummary считает пользователей, ожидающих одобрения техников и
// выручку по завершённым платежам.
func (s *Storage) AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	const op = "storage.AnalyticsSummary"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var sum models.AnalyticsSummary
	err := s.DB.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM technician_profiles WHERE NOT is_approved),
			(SELECT COALESCE(SUM(amount), 0)::float8 FROM payments WHERE status = 'COMPLETED')`).
		Scan(&sum.TotalUsers, &sum.PendingApprovals, &sum.CompletedRevenue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sum, nil
}
