package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// ApproveTechnician одобряет профиль, снимает паузу и назначает конец пробного
// периода trialEnd, если он ещё не назначен. Возвращает действующий конец
// пробного периода.
func (s *Storage) ApproveTechnician(ctx context.Context, id int64, trialEnd time.Time) (time.Time, error) {
	const op = "storage.ApproveTechnician"
	if err := ctxDone(ctx, op); err != nil {
		return time.Time{}, err
	}

	var got time.Time
	err := s.DB.QueryRowContext(ctx, `UPDATE technician_profiles
		SET is_approved = TRUE,
			is_paused = FALSE,
			trial_ends_at = COALESCE(trial_ends_at, $2)
		WHERE id = $1
		RETURNING trial_ends_at`, id, trialEnd).Scan(&got)
	if err != nil {
		return time.Time{}, notFoundOr(op, "technician", err)
	}
	return got, nil
}

// SetApproved меняет только флаг одобрения.
func (s *Storage) SetApproved(ctx context.Context, id int64, approved bool) error {
	return s.setFlag(ctx, "storage.SetApproved",
		`UPDATE technician_profiles SET is_approved = $2 WHERE id = $1`, id, approved)
}

// SetPaused меняет только флаг паузы.
func (s *Storage) SetPaused(ctx context.Context, id int64, paused bool) error {
	return s.setFlag(ctx, "storage.SetPaused",
		`UPDATE technician_profiles SET is_paused = $2 WHERE id = $1`, id, paused)
}

func (s *Storage) setFlag(ctx context.Context, op, query string, id int64, value bool) error {
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return apperr.NotFound("technician")
	}
	return nil
}

// EnsureTechnicianProfiles создаёт недостающие профили для всех пользователей с
// ролью техника и возвращает количество созданных.
func (s *Storage) EnsureTechnicianProfiles(ctx context.Context) (int64, error) {
	const op = "storage.EnsureTechnicianProfiles"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, `INSERT INTO technician_profiles (user_id)
		SELECT id FROM users WHERE role = $1
		ON CONFLICT (user_id) DO NOTHING`, models.RoleTechnician)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListPendingTechnicians возвращает неодобренные профили, старые первыми.
func (s *Storage) ListPendingTechnicians(ctx context.Context, page models.Page) (*models.PageResult[*models.TechnicianProfile], error) {
	const op = "storage.ListPendingTechnicians"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	page = page.Normalize()

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM technician_profiles WHERE NOT is_approved`).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := "SELECT " + profileColumns + profileFrom +
		" WHERE NOT tp.is_approved ORDER BY tp.created_at ASC, tp.id ASC LIMIT $1 OFFSET $2"
	profiles, err := s.queryProfiles(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.PageResult[*models.TechnicianProfile]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  profiles,
	}, nil
}

// ListTechnicians возвращает страницу всех профилей для администратора,
// новые первыми. Поиск идёт по имени пользователя, email, местоположению и навыкам.
func (s *Storage) ListTechnicians(ctx context.Context, f models.AdminTechnicianFilter) (*models.PageResult[*models.TechnicianProfile], error) {
	const op = "storage.ListTechnicians"
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

	if f.IsApproved != nil {
		conds = append(conds, "tp.is_approved = "+addArg(*f.IsApproved))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		conds = append(conds, "tp.location = "+addArg(loc))
	}
	if f.YearsExperience != nil {
		conds = append(conds, "tp.years_experience = "+addArg(*f.YearsExperience))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := addArg(likePattern(q))
		conds = append(conds, `(u.username ILIKE `+p+` OR u.email ILIKE `+p+` OR tp.location ILIKE `+p+`
			OR EXISTS (SELECT 1 FROM technician_skills ts JOIN skills sk ON sk.id = ts.skill_id
				WHERE ts.profile_id = tp.id AND sk.name ILIKE `+p+`))`)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*)"+profileFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page := f.Page.Normalize()
	query := "SELECT " + profileColumns + profileFrom + where +
		" ORDER BY tp.created_at DESC, tp.id DESC" +
		" LIMIT " + addArg(page.Size) + " OFFSET " + addArg(page.Offset())
	profiles, err := s.queryProfiles(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.PageResult[*models.TechnicianProfile]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  profiles,
	}, nil
}

// lockProfile блокирует строку профиля до конца транзакции.
func lockProfile(ctx context.Context, tx *sql.Tx, id int64) error {
	var locked int64
	return tx.QueryRowContext(ctx, `SELECT id FROM technician_profiles WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
}
