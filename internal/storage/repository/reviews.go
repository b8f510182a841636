package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/rating"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// CreateReview сохраняет отзыв и пересчитывает рейтинг техника в одной
// транзакции под блокировкой строки профиля.
func (s *Storage) CreateReview(ctx context.Context, r models.Review) (*models.Review, rating.Stats, error) {
	const op = "storage.CreateReview"
	if err := ctxDone(ctx, op); err != nil {
		return nil, rating.Stats{}, err
	}

	var stats rating.Stats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockProfile(ctx, tx, r.TechnicianID); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, `INSERT INTO reviews (technician_id, reviewer_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			r.TechnicianID, r.ReviewerID, r.Rating, r.Comment).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			return err
		}
		stats, err = recomputeLocked(ctx, tx, r.TechnicianID)
		return err
	})
	if err != nil {
		return nil, rating.Stats{}, notFoundOr(op, "technician", err)
	}
	return &r, stats, nil
}

// DeleteReview удаляет отзыв автора reviewerID и пересчитывает рейтинг.
// Чужой отзыв даёт Forbidden, несуществующий NotFound.
func (s *Storage) DeleteReview(ctx context.Context, reviewID, reviewerID int64) (int64, rating.Stats, error) {
	const op = "storage.DeleteReview"
	if err := ctxDone(ctx, op); err != nil {
		return 0, rating.Stats{}, err
	}

	var technicianID, owner int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT technician_id, reviewer_id FROM reviews WHERE id = $1`, reviewID).Scan(&technicianID, &owner)
	if err != nil {
		return 0, rating.Stats{}, notFoundOr(op, "review", err)
	}
	if owner != reviewerID {
		return 0, rating.Stats{}, apperr.Forbidden("review belongs to another user")
	}

	var stats rating.Stats
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockProfile(ctx, tx, technicianID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1 AND reviewer_id = $2`, reviewID, reviewerID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return sql.ErrNoRows
		}
		stats, err = recomputeLocked(ctx, tx, technicianID)
		return err
	})
	if err != nil {
		return 0, rating.Stats{}, notFoundOr(op, "review", err)
	}
	return technicianID, stats, nil
}

// RecomputeRating пересчитывает рейтинг техника по всем сохранённым отзывам.
func (s *Storage) RecomputeRating(ctx context.Context, technicianID int64) (rating.Stats, error) {
	const op = "storage.RecomputeRating"
	if err := ctxDone(ctx, op); err != nil {
		return rating.Stats{}, err
	}

	var stats rating.Stats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockProfile(ctx, tx, technicianID); err != nil {
			return err
		}
		var err error
		stats, err = recomputeLocked(ctx, tx, technicianID)
		return err
	})
	if err != nil {
		return rating.Stats{}, notFoundOr(op, "technician", err)
	}
	return stats, nil
}

// recomputeLocked агрегирует отзывы свежим запросом и пишет только поля
// рейтинга. Вызывающий обязан держать блокировку профиля.
func recomputeLocked(ctx context.Context, tx *sql.Tx, technicianID int64) (rating.Stats, error) {
	var sum int64
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE technician_id = $1`,
		technicianID).Scan(&sum, &count)
	if err != nil {
		return rating.Stats{}, err
	}

	stats := rating.Aggregate(sum, count)
	res, err := tx.ExecContext(ctx,
		`UPDATE technician_profiles SET rating_avg = $2, rating_count = $3 WHERE id = $1`,
		technicianID, stats.Avg, stats.Count)
	if err != nil {
		return rating.Stats{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return rating.Stats{}, err
	} else if n == 0 {
		return rating.Stats{}, errors.New("technician profile vanished during recompute")
	}
	return stats, nil
}

// ListReviews возвращает отзывы о технике, новые первыми.
func (s *Storage) ListReviews(ctx context.Context, technicianID int64, page models.Page) (*models.PageResult[*models.Review], error) {
	const op = "storage.ListReviews"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	page = page.Normalize()

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE technician_id = $1`, technicianID).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT r.id, r.technician_id, r.reviewer_id, u.username,
			r.rating, r.comment, r.created_at
		FROM reviews r JOIN users u ON u.id = r.reviewer_id
		WHERE r.technician_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3`, technicianID, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.TechnicianID, &r.ReviewerID, &r.ReviewerUsername,
			&r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.PageResult[*models.Review]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  reviews,
	}, nil
}
