package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/agent-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/agent-panel/internal/lib/password"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) EnsureProfile(ctx context.Context, userUID string) error {
	return m.Called(ctx, userUID).Error(0)
}
func (m *UsersMock) EnsureAgentConfig(ctx context.Context, userUID string) error {
	return m.Called(ctx, userUID).Error(0)
}
func (m *UsersMock) UpdateProfileInfo(ctx context.Context, userUID string, req models.DummyProfile) (int, error) {
	args := m.Called(ctx, userUID, req)
	return args.Int(0), args.Error(1)
}

func newTestService(users *UsersMock) *AuthService {
	return NewAuthService(users, jwt.NewJWTMaker("test-secret", time.Hour))
}

func TestRegister(t *testing.T) {
	t.Run("успешная регистрация с именем", func(t *testing.T) {
		users := new(UsersMock)
		users.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "alice@test.com" && u.Role == "user" && u.IsActive &&
				password.CompareHash(u.PasswordHash, "secret123") == nil
		})).Return("uid-1", nil)
		users.On("EnsureProfile", mock.Anything, "uid-1").Return(nil)
		users.On("EnsureAgentConfig", mock.Anything, "uid-1").Return(nil)
		users.On("UpdateProfileInfo", mock.Anything, "uid-1",
			models.DummyProfile{Name: "Alice"}).Return(1, nil)

		svc := newTestService(users)
		uid, err := svc.Register(context.Background(), "alice@test.com", "Alice", "secret123")

		require.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		users.AssertExpectations(t)
	})

	t.Run("регистрация без имени не трогает профиль", func(t *testing.T) {
		users := new(UsersMock)
		users.On("RegisterUser", mock.Anything, mock.AnythingOfType("models.User")).
			Return("uid-2", nil)
		users.On("EnsureProfile", mock.Anything, "uid-2").Return(nil)
		users.On("EnsureAgentConfig", mock.Anything, "uid-2").Return(nil)

		svc := newTestService(users)
		uid, err := svc.Register(context.Background(), "bob@test.com", "", "secret123")

		require.NoError(t, err)
		assert.Equal(t, "uid-2", uid)
		users.AssertNotCalled(t, "UpdateProfileInfo", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ошибка базы данных", func(t *testing.T) {
		users := new(UsersMock)
		users.On("RegisterUser", mock.Anything, mock.AnythingOfType("models.User")).
			Return("", errors.New("duplicate email"))

		svc := newTestService(users)
		_, err := svc.Register(context.Background(), "alice@test.com", "Alice", "secret123")

		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	t.Run("успешный вход", func(t *testing.T) {
		users := new(UsersMock)
		users.On("GetUserByEmail", mock.Anything, "alice@test.com").
			Return(&models.User{
				UID:          "uid-1",
				Email:        "alice@test.com",
				PasswordHash: hash,
				Role:         "user",
				IsActive:     true,
			}, nil)

		svc := newTestService(users)
		token, role, err := svc.Login(context.Background(), "alice@test.com", "secret123")

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "user", role)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		users := new(UsersMock)
		users.On("GetUserByEmail", mock.Anything, "alice@test.com").
			Return(&models.User{Email: "alice@test.com", PasswordHash: hash, IsActive: true}, nil)

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "alice@test.com", "wrong")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("пользователь не найден", func(t *testing.T) {
		users := new(UsersMock)
		users.On("GetUserByEmail", mock.Anything, "nobody@test.com").
			Return(nil, errors.New("not found"))

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "nobody@test.com", "secret123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("отключённая учётная запись", func(t *testing.T) {
		users := new(UsersMock)
		users.On("GetUserByEmail", mock.Anything, "alice@test.com").
			Return(&models.User{Email: "alice@test.com", PasswordHash: hash, IsActive: false}, nil)

		svc := newTestService(users)
		_, _, err := svc.Login(context.Background(), "alice@test.com", "secret123")

		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestValidateToken(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	svc := NewAuthService(new(UsersMock), maker)

	token, err := maker.GenerateToken("alice@test.com", "admin", "uid-1")
	require.NoError(t, err)

	user, role, valid, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "alice@test.com", user.Email)
	assert.Equal(t, "uid-1", user.UID)

	_, _, _, err = svc.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
}
