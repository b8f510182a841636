package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// HasActiveSubscription сообщает, есть ли у пользователя подписка со статусом
// ACTIVE и датой окончания не раньше now.
func (s *Storage) HasActiveSubscription(ctx context.Context, userID int64, now time.Time) (bool, error) {
	const op = "storage.HasActiveSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var ok bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND status = 'ACTIVE' AND end_date >= $2
		)`, userID, now).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// ListSubscriptionsByUser возвращает подписки пользователя, новые первыми.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT s.id, s.user_id, s.plan_id, p.name, s.status,
			s.start_date, s.end_date, s.created_at
		FROM subscriptions s JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	subs := make([]*models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.PlanName, &sub.Status,
			&sub.StartDate, &sub.EndDate, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// CancelSubscription переводит подписку пользователя из ACTIVE в CANCELED.
// Подписка в другом статусе даёт Conflict, чужая или несуществующая NotFound.
func (s *Storage) CancelSubscription(ctx context.Context, id, userID int64) (*models.Subscription, error) {
	const op = "storage.CancelSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var sub models.Subscription
	err := s.DB.QueryRowContext(ctx, `UPDATE subscriptions SET status = 'CANCELED'
		WHERE id = $1 AND user_id = $2 AND status = 'ACTIVE'
		RETURNING id, user_id, plan_id, status, start_date, end_date, created_at`, id, userID).
		Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartDate, &sub.EndDate, &sub.CreatedAt)
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var status string
	if lookupErr := s.DB.QueryRowContext(ctx,
		`SELECT status FROM subscriptions WHERE id = $1 AND user_id = $2`, id, userID).Scan(&status); lookupErr != nil {
		return nil, notFoundOr(op, "subscription", lookupErr)
	}
	return nil, apperr.Conflict(fmt.Sprintf("subscription is %s", status), nil)
}

// ListSubscriptions возвращает страницу подписок для администратора, новые
// первыми. Поиск идёт по имени пользователя и названию тарифа.
func (s *Storage) ListSubscriptions(ctx context.Context, f models.SubscriptionFilter) (*models.PageResult[*models.Subscription], error) {
	const op = "storage.ListSubscriptions"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var (
		args  []any
		conds []string
	)
	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "s.status = "+addArg(f.Status))
	}
	if f.PlanID > 0 {
		conds = append(conds, "s.plan_id = "+addArg(f.PlanID))
	}
	if f.UserID > 0 {
		conds = append(conds, "s.user_id = "+addArg(f.UserID))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := addArg(likePattern(q))
		conds = append(conds, "(u.username ILIKE "+p+" OR p.name ILIKE "+p+")")
	}

	from := ` FROM subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		JOIN users u ON u.id = s.user_id`
	if len(conds) > 0 {
		from += " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page := f.Page.Normalize()
	query := `SELECT s.id, s.user_id, u.username, s.plan_id, p.name, s.status,
			s.start_date, s.end_date, s.created_at` + from +
		" ORDER BY s.created_at DESC, s.id DESC" +
		" LIMIT " + addArg(page.Size) + " OFFSET " + addArg(page.Offset())

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	subs := make([]*models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Username, &sub.PlanID, &sub.PlanName, &sub.Status,
			&sub.StartDate, &sub.EndDate, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.PageResult[*models.Subscription]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  subs,
	}, nil
}
