// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/agent-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/agent-panel/internal/lib/password"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Ошибки аутентификации, различаемые обработчиками.
var (
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled возвращается при попытке входа в отключённую учётную запись.
	ErrAccountDisabled = errors.New("account is disabled")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// EnsureProfile создает пустой профиль пользователя, если его еще нет.
	EnsureProfile(ctx context.Context, userUID string) error

	// EnsureAgentConfig создает пустую конфигурацию агента, если ее еще нет.
	EnsureAgentConfig(ctx context.Context, userUID string) error

	// UpdateProfileInfo обновляет самостоятельно редактируемые поля профиля.
	UpdateProfileInfo(ctx context.Context, userUID string, req models.DummyProfile) (int, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной
// ролью "user", а также заготавливает ему пустой профиль и пустую
// конфигурацию агента. Возвращает UID созданного пользователя.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (string, error) {
	const op = "auth.Register"
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         "user", // дефолтная роль при регистрации
		IsActive:     true,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.EnsureProfile(ctx, uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.EnsureAgentConfig(ctx, uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if name != "" {
		if _, err = s.users.UpdateProfileInfo(ctx, uid, models.DummyProfile{Name: name}); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
// Отключённые учётные записи к входу не допускаются.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", ErrAccountDisabled
	}
	token, err = s.jwtMaker.GenerateToken(user.Email, user.Role, user.UID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе,
// роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		Email: claims.Email,
		Role:  claims.Role,
		UID:   claims.UserUID,
	}
	return user, claims.Role, true, nil
}
