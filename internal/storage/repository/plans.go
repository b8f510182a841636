package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// SeedPlans создаёт тарифы, которых ещё нет. Существующие тарифы не меняются,
// кроме пустого provider_price_id, который заполняется из plans.
func (s *Storage) SeedPlans(ctx context.Context, plans []models.Plan) error {
	const op = "storage.SeedPlans"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	for _, p := range plans {
		_, err := s.DB.ExecContext(ctx, `INSERT INTO subscription_plans
				(name, duration_months, price, currency, provider_price_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO UPDATE
				SET provider_price_id = EXCLUDED.provider_price_id
				WHERE subscription_plans.provider_price_id = '' AND EXCLUDED.provider_price_id <> ''`,
			p.Name, p.DurationMonths, p.Price, p.Currency, p.ProviderPriceID)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", op, p.Name, err)
		}
	}
	return nil
}

// ListPlans возвращает тарифы по возрастанию длительности.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, duration_months, price::float8, currency, provider_price_id
		FROM subscription_plans
		ORDER BY duration_months ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	plans := make([]*models.Plan, 0)
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.DurationMonths, &p.Price, &p.Currency, &p.ProviderPriceID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// GetPlan возвращает тариф по ID.
func (s *Storage) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var p models.Plan
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, duration_months, price::float8, currency, provider_price_id
		FROM subscription_plans WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.DurationMonths, &p.Price, &p.Currency, &p.ProviderPriceID)
	if err != nil {
		return nil, notFoundOr(op, "plan", err)
	}
	return &p, nil
}
