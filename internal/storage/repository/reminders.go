package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// ListTrialsEnding возвращает одобренных техников без активной подписки, чей
// пробный период заканчивается в интервале [from, to].
func (s *Storage) ListTrialsEnding(ctx context.Context, from, to time.Time) ([]models.Reminder, error) {
	return s.listReminders(ctx, "storage.ListTrialsEnding", models.ReminderTrialEnding, `SELECT u.id, u.username, u.email, tp.trial_ends_at
		FROM technician_profiles tp JOIN users u ON u.id = tp.user_id
		WHERE tp.is_approved AND tp.trial_ends_at BETWEEN $1 AND $2
		  AND NOT EXISTS (
			SELECT 1 FROM subscriptions s
			WHERE s.user_id = tp.user_id AND s.status = 'ACTIVE' AND s.end_date > $2
		  )
		ORDER BY tp.trial_ends_at`, from, to)
}

// ListSubscriptionsEnding возвращает активные подписки, заканчивающиеся в
// интервале [from, to], если у пользователя нет более длинной активной подписки.
func (s *Storage) ListSubscriptionsEnding(ctx context.Context, from, to time.Time) ([]models.Reminder, error) {
	return s.listReminders(ctx, "storage.ListSubscriptionsEnding", models.ReminderSubscriptionEnding, `SELECT u.id, u.username, u.email, MAX(s.end_date)
		FROM subscriptions s JOIN users u ON u.id = s.user_id
		WHERE s.status = 'ACTIVE' AND s.end_date >= $1
		GROUP BY u.id, u.username, u.email
		HAVING MAX(s.end_date) <= $2
		ORDER BY MAX(s.end_date)`, from, to)
}

// ListDocumentsExpiring возвращает техников, чей документ истекает в интервале [from, to].
func (s *Storage) ListDocumentsExpiring(ctx context.Context, from, to time.Time) ([]models.Reminder, error) {
	return s.listReminders(ctx, "storage.ListDocumentsExpiring", models.ReminderDocumentExpiring, `SELECT u.id, u.username, u.email, tp.document_expires_at
		FROM technician_profiles tp JOIN users u ON u.id = tp.user_id
		WHERE tp.document_expires_at BETWEEN $1 AND $2
		ORDER BY tp.document_expires_at`, from, to)
}

func (s *Storage) listReminders(ctx context.Context, op, kind, query string, from, to time.Time) ([]models.Reminder, error) {
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		r := models.Reminder{Kind: kind}
		if err := rows.Scan(&r.UserID, &r.Username, &r.Email, &r.Deadline); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
