// Package auth содержит логику регистрации, входа и проверки JWT.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/jwt"
	"github.com/magabrotheeeer/technician-marketplace/internal/lib/password"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет пользователя и возвращает его ID. Для техника
	// профиль создаётся в той же транзакции.
	CreateUser(ctx context.Context, user models.User) (int64, error)

	// GetUserByUsername возвращает пользователя по имени или NotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Hasher хэширует и сверяет пароли.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	hasher   Hasher
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(log *slog.Logger, users UserRepository, hasher Hasher, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает пользователя с ролью technician или employer.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (int64, error) {
	const op = "auth.Register"

	if req.Role != models.RoleTechnician && req.Role != models.RoleEmployer {
		return 0, apperr.Validation("role must be technician or employer")
	}
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.users.CreateUser(ctx, models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.Int64("user_id", id), slog.String("role", req.Role))
	return id, nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return "", nil, apperr.Unauthorized("invalid credentials")
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.hasher.Compare(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", nil, apperr.Unauthorized("invalid credentials")
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает его claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким именем ещё нет.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, rawPassword string) error {
	const op = "auth.EnsureAdmin"

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
	})
	if err != nil && !apperr.Is(err, apperr.KindConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err == nil {
		s.log.Info("admin user created", slog.Int64("user_id", id))
	}
	return nil
}
