package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID. Для техника в
// той же транзакции создаётся пустой профиль.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var newID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO users (username, email, password_hash, role, first_name, last_name)
				  VALUES ($1, $2, $3, $4, $5, $6)
				  RETURNING id`
		if err := tx.QueryRowContext(ctx, query,
			user.Username, user.Email, user.PasswordHash, user.Role,
			user.FirstName, user.LastName).Scan(&newID); err != nil {
			return err
		}
		if user.Role != models.RoleTechnician {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO technician_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
			newID)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflict("username or email already taken", err)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, username, email, password_hash, role, first_name, last_name, created_at
			  FROM users
			  WHERE username = $1`
	return s.scanUser(ctx, op, query, username)
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, username, email, password_hash, role, first_name, last_name, created_at
			  FROM users
			  WHERE id = $1`
	return s.scanUser(ctx, op, query, id)
}

func (s *Storage) scanUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email,
		&u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		return nil, notFoundOr(op, "user", err)
	}
	return u, nil
}
