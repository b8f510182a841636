package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/docexpiry"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// VisibleClause условие видимости профиля работодателям. $1 это текущий момент.
// Используется всеми списками, которые видят работодатели и гости.
const VisibleClause = `tp.is_approved AND NOT tp.is_paused AND (
		tp.trial_ends_at >= $1
		OR EXISTS (
			SELECT 1 FROM subscriptions s
			WHERE s.user_id = tp.user_id AND s.status = 'ACTIVE' AND s.end_date >= $1
		)
	)`

const profileColumns = `tp.id, tp.user_id, u.username, u.first_name, u.last_name, tp.bio,
	tp.years_experience, tp.location, tp.is_approved, tp.is_paused, tp.trial_ends_at,
	tp.rating_avg::float8, tp.rating_count, tp.document_ref, tp.document_uploaded_at,
	tp.document_expires_at, tp.created_at`

const profileFrom = ` FROM technician_profiles tp JOIN users u ON u.id = tp.user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.TechnicianProfile, error) {
	var (
		p                        models.TechnicianProfile
		trial, uploaded, expires sql.NullTime
		docRef                   sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.Bio,
		&p.YearsExperience, &p.Location, &p.IsApproved, &p.IsPaused, &trial,
		&p.RatingAvg, &p.RatingCount, &docRef, &uploaded, &expires, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.TrialEndsAt = nullTimePtr(trial)
	p.DocumentRef = nullStringPtr(docRef)
	p.DocumentUploadedAt = nullTimePtr(uploaded)
	p.DocumentExpiresAt = nullTimePtr(expires)
	p.Skills = []models.Skill{}
	return &p, nil
}

// likePattern экранирует спецсимволы LIKE и оборачивает строку в %...%.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// ListVisibleTechnicians возвращает страницу профилей, видимых работодателям в
// момент now, с учётом фильтров, поиска и сортировки.
func (s *Storage) ListVisibleTechnicians(ctx context.Context, f models.TechnicianFilter, now time.Time) (*models.PageResult[*models.TechnicianProfile], error) {
	const op = "storage.ListVisibleTechnicians"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	args := []any{now}
	conds := []string{VisibleClause}
	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if loc := strings.TrimSpace(f.Location); loc != "" {
		conds = append(conds, "tp.location ILIKE "+addArg(likePattern(loc)))
	}
	if skill := strings.TrimSpace(f.Skill); skill != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM technician_skills ts JOIN skills sk ON sk.id = ts.skill_id
			WHERE ts.profile_id = tp.id AND sk.name ILIKE `+addArg(likePattern(skill))+`)`)
	}
	if f.SkillID > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM technician_skills ts
			WHERE ts.profile_id = tp.id AND ts.skill_id = `+addArg(f.SkillID)+`)`)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p := addArg(likePattern(q))
		conds = append(conds, `(u.username ILIKE `+p+` OR tp.bio ILIKE `+p+` OR tp.location ILIKE `+p+`
			OR EXISTS (SELECT 1 FROM technician_skills ts JOIN skills sk ON sk.id = ts.skill_id
				WHERE ts.profile_id = tp.id AND sk.name ILIKE `+p+`))`)
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*)"+profileFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, ok := models.TechnicianOrderings[f.Ordering]
	if !ok {
		order = models.TechnicianOrderings[models.DefaultOrdering]
	}
	page := f.Page.Normalize()
	query := "SELECT " + profileColumns + profileFrom + where +
		" ORDER BY " + order +
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

// IsProfileVisible проверяет видимость одного профиля тем же условием, что и списки.
func (s *Storage) IsProfileVisible(ctx context.Context, profileID int64, now time.Time) (bool, error) {
	const op = "storage.IsProfileVisible"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var visible bool
	query := `SELECT EXISTS (SELECT 1 FROM technician_profiles tp WHERE ` + VisibleClause + ` AND tp.id = $2)`
	if err := s.DB.QueryRowContext(ctx, query, now, profileID).Scan(&visible); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return visible, nil
}

// GetApprovedTechnician возвращает одобренный профиль по ID. Пробный период и
// подписка здесь не проверяются.
func (s *Storage) GetApprovedTechnician(ctx context.Context, id int64) (*models.TechnicianProfile, error) {
	const op = "storage.GetApprovedTechnician"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := "SELECT " + profileColumns + profileFrom + " WHERE tp.id = $1 AND tp.is_approved"
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(op, "technician", err)
	}
	if err := s.attachSkills(ctx, []*models.TechnicianProfile{p}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetProfileByID возвращает профиль по ID без фильтров.
func (s *Storage) GetProfileByID(ctx context.Context, id int64) (*models.TechnicianProfile, error) {
	const op = "storage.GetProfileByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := "SELECT " + profileColumns + profileFrom + " WHERE tp.id = $1"
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(op, "technician", err)
	}
	if err := s.attachSkills(ctx, []*models.TechnicianProfile{p}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetOrCreateProfile возвращает профиль техника, создавая пустой при отсутствии.
func (s *Storage) GetOrCreateProfile(ctx context.Context, userID int64) (*models.TechnicianProfile, error) {
	const op = "storage.GetOrCreateProfile"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO technician_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.getProfileByUserID(ctx, op, userID)
}

func (s *Storage) getProfileByUserID(ctx context.Context, op string, userID int64) (*models.TechnicianProfile, error) {
	query := "SELECT " + profileColumns + profileFrom + " WHERE tp.user_id = $1"
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, notFoundOr(op, "technician", err)
	}
	if err := s.attachSkills(ctx, []*models.TechnicianProfile{p}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SetAutoPause записывает флаг паузы, только если он отличается от текущего.
// Возвращает true, если строка изменилась.
func (s *Storage) SetAutoPause(ctx context.Context, profileID int64, paused bool) (bool, error) {
	const op = "storage.SetAutoPause"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE technician_profiles SET is_paused = $2 WHERE id = $1 AND is_paused <> $2`,
		profileID, paused)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// UpdateProfile применяет изменения профиля техника. Срок действия документа
// пересчитывается тем же UPDATE, что и ссылка на документ.
func (s *Storage) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate, now time.Time) (*models.TechnicianProfile, error) {
	const op = "storage.UpdateProfile"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var (
		docProvided bool
		docRef      string
		uploadedAt  *time.Time
		expiresAt   *time.Time
	)
	if upd.DocumentRef != nil {
		docProvided = true
		docRef = strings.TrimSpace(*upd.DocumentRef)
		if docRef != "" {
			uploadedAt = &now
			expiresAt = docexpiry.ExpiresAt(uploadedAt)
		}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO technician_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
			return err
		}

		var profileID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM technician_profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&profileID); err != nil {
			return err
		}

		if upd.FirstName != nil || upd.LastName != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET first_name = COALESCE($2, first_name), last_name = COALESCE($3, last_name)
				 WHERE id = $1`, userID, upd.FirstName, upd.LastName); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `UPDATE technician_profiles SET
				bio = COALESCE($2, bio),
				years_experience = COALESCE($3, years_experience),
				location = COALESCE($4, location),
				document_ref = CASE WHEN $5::boolean THEN NULLIF($6::text, '') ELSE document_ref END,
				document_uploaded_at = CASE WHEN $5::boolean THEN $7::timestamptz ELSE document_uploaded_at END,
				document_expires_at = CASE WHEN $5::boolean THEN $8::timestamptz ELSE document_expires_at END
			WHERE id = $1`,
			profileID, upd.Bio, upd.YearsExperience, upd.Location,
			docProvided, docRef, uploadedAt, expiresAt)
		if err != nil {
			return err
		}

		if upd.SkillNames != nil {
			return replaceSkills(ctx, tx, profileID, upd.SkillNames)
		}
		return nil
	})
	if err != nil {
		return nil, notFoundOr(op, "technician", err)
	}

	return s.getProfileByUserID(ctx, op, userID)
}

// replaceSkills заменяет набор навыков профиля, создавая навыки по имени.
func replaceSkills(ctx context.Context, tx *sql.Tx, profileID int64, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM technician_skills WHERE profile_id = $1`, profileID); err != nil {
		return err
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var skillID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO skills (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, name).Scan(&skillID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO technician_skills (profile_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			profileID, skillID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) queryProfiles(ctx context.Context, query string, args ...any) ([]*models.TechnicianProfile, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*models.TechnicianProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachSkills(ctx, profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// attachSkills подгружает навыки для набора профилей одним запросом.
func (s *Storage) attachSkills(ctx context.Context, profiles []*models.TechnicianProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(profiles))
	byID := make(map[int64]*models.TechnicianProfile, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT ts.profile_id, sk.id, sk.name
		FROM technician_skills ts JOIN skills sk ON sk.id = ts.skill_id
		WHERE ts.profile_id = ANY($1)
		ORDER BY sk.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var profileID int64
		var sk models.Skill
		if err := rows.Scan(&profileID, &sk.ID, &sk.Name); err != nil {
			return err
		}
		if p, ok := byID[profileID]; ok {
			p.Skills = append(p.Skills, sk)
		}
	}
	return rows.Err()
}
