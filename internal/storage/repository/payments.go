package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

const paymentColumns = `id, payer_id, payee_id, job_id, application_id, amount::float8, currency,
	status, tx_ref, provider_tx_id, created_at, completed_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p               models.Payment
		payee, job, app sql.NullInt64
		completedAt     sql.NullTime
	)
	err := row.Scan(&p.ID, &p.PayerID, &payee, &job, &app, &p.Amount, &p.Currency,
		&p.Status, &p.TxRef, &p.ProviderTxID, &p.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if payee.Valid {
		p.PayeeID = &payee.Int64
	}
	if job.Valid {
		p.JobID = &job.Int64
	}
	if app.Valid {
		p.ApplicationID = &app.Int64
	}
	p.CompletedAt = nullTimePtr(completedAt)
	return &p, nil
}

// CreatePayment сохраняет платёж в статусе PENDING. Повтор tx_ref даёт Conflict.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanPayment(s.DB.QueryRowContext(ctx, `INSERT INTO payments
			(payer_id, payee_id, job_id, application_id, amount, currency, status, tx_ref, provider_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, 'PENDING', $7, $8)
		RETURNING `+paymentColumns,
		p.PayerID, p.PayeeID, p.JobID, p.ApplicationID, p.Amount, p.Currency, p.TxRef, p.ProviderTxID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("payment reference already exists", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetPaymentByTxRef возвращает платёж по ссылке транзакции.
func (s *Storage) GetPaymentByTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	const op = "storage.GetPaymentByTxRef"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE tx_ref = $1`, txRef))
	if err != nil {
		return nil, notFoundOr(op, "payment", err)
	}
	return p, nil
}

// ListPaymentsByPayer возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByPayer(ctx context.Context, payerID int64) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByPayer"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE payer_id = $1
		ORDER BY created_at DESC, id DESC`, payerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// CompleteSubscriptionPayment в одной транзакции переводит платёж из PENDING в
// COMPLETED, создаёт активную подписку и снимает паузу с профиля техника.
// Если платёж уже не в PENDING, ничего не меняется и возвращается nil.
func (s *Storage) CompleteSubscriptionPayment(ctx context.Context, c models.PaymentCompletion) (*models.Subscription, error) {
	const op = "storage.CompleteSubscriptionPayment"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var sub *models.Subscription
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE payments
			SET status = 'COMPLETED',
				provider_tx_id = COALESCE(NULLIF($2, ''), provider_tx_id),
				completed_at = $3
			WHERE tx_ref = $1 AND status = 'PENDING'`, c.TxRef, c.ProviderTxID, c.Start)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		created := models.Subscription{
			UserID:    c.UserID,
			PlanID:    c.PlanID,
			Status:    models.SubscriptionActive,
			StartDate: c.Start,
			EndDate:   c.End,
		}
		err = tx.QueryRowContext(ctx, `INSERT INTO subscriptions (user_id, plan_id, status, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			c.UserID, c.PlanID, created.Status, c.Start, c.End).Scan(&created.ID, &created.CreatedAt)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE technician_profiles SET is_paused = FALSE WHERE user_id = $1 AND is_paused`, c.UserID); err != nil {
			return err
		}

		sub = &created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// FailPayment переводит платёж из PENDING в FAILED. Возвращает true, если
// статус изменился.
func (s *Storage) FailPayment(ctx context.Context, txRef string) (bool, error) {
	const op = "storage.FailPayment"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE payments SET status = 'FAILED' WHERE tx_ref = $1 AND status = 'PENDING'`, txRef)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
