package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}
func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) UpdateProfileInfo(ctx context.Context, userUID string, req models.DummyProfile) (int, error) {
	args := m.Called(ctx, userUID, req)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) SetKYCDocument(ctx context.Context, userUID, documentRef string) error {
	return m.Called(ctx, userUID, documentRef).Error(0)
}
func (m *RepoMock) UpdateKYCStatus(ctx context.Context, userUIDs []string, status string) (int, error) {
	args := m.Called(ctx, userUIDs, status)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) UpdateSubscription(ctx context.Context, userUIDs []string, expiry time.Time, packageName string) (int, error) {
	args := m.Called(ctx, userUIDs, expiry, packageName)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) AppendSubscriptionHistory(ctx context.Context, entry models.SubscriptionHistory) (int, error) {
	args := m.Called(ctx, entry)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListSubscriptionHistory(ctx context.Context, userUID string) ([]*models.SubscriptionHistory, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionHistory), args.Error(1)
}
func (m *RepoMock) SetUserActive(ctx context.Context, userUID string, active bool) (int, error) {
	args := m.Called(ctx, userUID, active)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListProfiles(ctx context.Context, query, statusFilter string) ([]*models.ProfileListItem, error) {
	args := m.Called(ctx, query, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProfileListItem), args.Error(1)
}
func (m *RepoMock) CountAdminStats(ctx context.Context, now time.Time) (*models.AdminStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminStats), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) SendKYCDecision(email, name, outcome string) error {
	return m.Called(email, name, outcome).Error(0)
}

func newTestService(t *testing.T, repo *RepoMock, notifier *NotifierMock) *ProfileService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewProfileService(repo, notifier, t.TempDir(), logger)
}

func TestSubmitDocument(t *testing.T) {
	tests := []struct {
		name      string
		kycStatus string
		document  string
		wantErr   error
	}{
		{
			name:      "первая отправка документа",
			kycStatus: models.KYCStatusNotSubmitted,
			document:  "document-bytes",
		},
		{
			name:      "повторная отправка после отклонения",
			kycStatus: models.KYCStatusRejected,
			document:  "new-document-bytes",
		},
		{
			name:      "повторная отправка в ожидании проверки",
			kycStatus: models.KYCStatusPending,
			document:  "replacement-bytes",
		},
		{
			name:      "отправка после успешной проверки запрещена",
			kycStatus: models.KYCStatusVerified,
			document:  "document-bytes",
			wantErr:   ErrAlreadyVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetProfile", mock.Anything, "uid-1").
				Return(&models.Profile{UserUID: "uid-1", KYCStatus: tt.kycStatus}, nil)
			if tt.wantErr == nil {
				repo.On("SetKYCDocument", mock.Anything, "uid-1", mock.AnythingOfType("string")).
					Return(nil)
			}

			svc := newTestService(t, repo, new(NotifierMock))
			ref, err := svc.SubmitDocument(context.Background(), "uid-1", strings.NewReader(tt.document), ".pdf")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(ref, ".pdf"))
			repo.AssertExpectations(t)
		})
	}
}

func TestSubmitDocument_EmptyFile(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetProfile", mock.Anything, "uid-1").
		Return(&models.Profile{UserUID: "uid-1", KYCStatus: models.KYCStatusNotSubmitted}, nil)

	svc := newTestService(t, repo, new(NotifierMock))
	_, err := svc.SubmitDocument(context.Background(), "uid-1", strings.NewReader(""), ".pdf")

	assert.Error(t, err)
	repo.AssertNotCalled(t, "SetKYCDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide(t *testing.T) {
	t.Run("подтверждение с рассылкой писем", func(t *testing.T) {
		repo := new(RepoMock)
		notifier := new(NotifierMock)
		uids := []string{"uid-1", "uid-2"}

		repo.On("UpdateKYCStatus", mock.Anything, uids, models.KYCStatusVerified).Return(2, nil)
		repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1", Email: "a@test.com"}, nil)
		repo.On("GetUser", mock.Anything, "uid-2").Return(&models.User{UID: "uid-2", Email: "b@test.com"}, nil)
		repo.On("GetProfile", mock.Anything, "uid-1").Return(&models.Profile{UserUID: "uid-1", Name: "Alice"}, nil)
		repo.On("GetProfile", mock.Anything, "uid-2").Return(&models.Profile{UserUID: "uid-2", Name: "Bob"}, nil)
		notifier.On("SendKYCDecision", "a@test.com", "Alice", models.KYCStatusVerified).Return(nil)
		notifier.On("SendKYCDecision", "b@test.com", "Bob", models.KYCStatusVerified).Return(nil)

		svc := newTestService(t, repo, notifier)
		updated, err := svc.Decide(context.Background(), uids, models.KYCStatusVerified)

		require.NoError(t, err)
		assert.Equal(t, 2, updated)
		notifier.AssertExpectations(t)
	})

	t.Run("отказ почты не прерывает рассылку", func(t *testing.T) {
		repo := new(RepoMock)
		notifier := new(NotifierMock)
		uids := []string{"uid-1", "uid-2"}

		repo.On("UpdateKYCStatus", mock.Anything, uids, models.KYCStatusRejected).Return(2, nil)
		repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1", Email: "a@test.com"}, nil)
		repo.On("GetUser", mock.Anything, "uid-2").Return(&models.User{UID: "uid-2", Email: "b@test.com"}, nil)
		repo.On("GetProfile", mock.Anything, "uid-1").Return(&models.Profile{UserUID: "uid-1", Name: "Alice"}, nil)
		repo.On("GetProfile", mock.Anything, "uid-2").Return(&models.Profile{UserUID: "uid-2", Name: "Bob"}, nil)
		notifier.On("SendKYCDecision", "a@test.com", "Alice", models.KYCStatusRejected).
			Return(errors.New("smtp connection refused"))
		notifier.On("SendKYCDecision", "b@test.com", "Bob", models.KYCStatusRejected).Return(nil)

		svc := newTestService(t, repo, notifier)
		updated, err := svc.Decide(context.Background(), uids, models.KYCStatusRejected)

		require.NoError(t, err)
		assert.Equal(t, 2, updated)
		notifier.AssertExpectations(t)
	})

	t.Run("неизвестное решение отклоняется", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newTestService(t, repo, new(NotifierMock))

		_, err := svc.Decide(context.Background(), []string{"uid-1"}, "MAYBE")

		assert.ErrorIs(t, err, ErrInvalidOutcome)
		repo.AssertNotCalled(t, "UpdateKYCStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAssignPackage(t *testing.T) {
	t.Run("пакет на 15 дней без записи в журнал", func(t *testing.T) {
		repo := new(RepoMock)
		uids := []string{"uid-1", "uid-2"}
		before := time.Now().UTC()

		repo.On("UpdateSubscription", mock.Anything, uids,
			mock.MatchedBy(func(expiry time.Time) bool {
				want := before.AddDate(0, 0, 15)
				return expiry.After(want.Add(-time.Minute)) && expiry.Before(want.Add(time.Minute))
			}), "15 Days Pack").Return(2, nil)

		svc := newTestService(t, repo, new(NotifierMock))
		updated, err := svc.AssignPackage(context.Background(), uids, 15)

		require.NoError(t, err)
		assert.Equal(t, 2, updated)
		repo.AssertNotCalled(t, "AppendSubscriptionHistory", mock.Anything, mock.Anything)
	})

	t.Run("недопустимая длительность", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newTestService(t, repo, new(NotifierMock))

		_, err := svc.AssignPackage(context.Background(), []string{"uid-1"}, 10)

		assert.ErrorIs(t, err, ErrInvalidDuration)
		repo.AssertNotCalled(t, "UpdateSubscription",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGrantSubscription(t *testing.T) {
	t.Run("выдача с записью в журнал", func(t *testing.T) {
		repo := new(RepoMock)

		repo.On("UpdateSubscription", mock.Anything, []string{"uid-1"},
			mock.AnythingOfType("time.Time"), "45 Days Package").Return(1, nil)
		repo.On("AppendSubscriptionHistory", mock.Anything,
			mock.MatchedBy(func(entry models.SubscriptionHistory) bool {
				return entry.UserUID == "uid-1" &&
					entry.PackageName == "45 Days Package - Admin Assigned"
			})).Return(1, nil)

		svc := newTestService(t, repo, new(NotifierMock))
		err := svc.GrantSubscription(context.Background(), "uid-1", 45)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("неположительное число дней", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newTestService(t, repo, new(NotifierMock))

		err := svc.GrantSubscription(context.Background(), "uid-1", 0)

		assert.ErrorIs(t, err, ErrInvalidDuration)
		repo.AssertNotCalled(t, "UpdateSubscription",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetSubscriptionStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name   string
		expiry *time.Time
		want   bool
	}{
		{name: "без даты истечения подписка активна", expiry: nil, want: true},
		{name: "дата в будущем", expiry: &future, want: true},
		{name: "дата в прошлом", expiry: &past, want: false},
		{name: "точно в момент истечения", expiry: &now, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetProfile", mock.Anything, "uid-1").
				Return(&models.Profile{UserUID: "uid-1", SubscriptionExpiry: tt.expiry}, nil)

			svc := newTestService(t, repo, new(NotifierMock))
			active, err := svc.GetSubscriptionStatus(context.Background(), "uid-1", now)

			require.NoError(t, err)
			assert.Equal(t, tt.want, active)
		})
	}
}

func TestList_DefaultsStatusFilter(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListProfiles", mock.Anything, "alice", "all").
		Return([]*models.ProfileListItem{}, nil)

	svc := newTestService(t, repo, new(NotifierMock))
	_, err := svc.List(context.Background(), "alice", "")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHistory(t *testing.T) {
	repo := new(RepoMock)
	entries := []*models.SubscriptionHistory{
		{ID: 2, UserUID: "uid-1", PackageName: "45 Days Package - Admin Assigned"},
		{ID: 1, UserUID: "uid-1", PackageName: "30 Days Package - Admin Assigned"},
	}
	repo.On("ListSubscriptionHistory", mock.Anything, "uid-1").Return(entries, nil)

	svc := newTestService(t, repo, new(NotifierMock))
	got, err := svc.History(context.Background(), "uid-1")

	require.NoError(t, err)
	assert.Equal(t, entries, got)
	repo.AssertExpectations(t)
}
