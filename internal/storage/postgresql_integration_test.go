package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

func TestStorage_RegisterAndGetUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	uid, err := storage.RegisterUser(context.Background(), models.User{
		Email:        "alice@example.com",
		PasswordHash: "hashedpassword",
		Role:         "user",
		IsActive:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	byEmail, err := storage.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, uid, byEmail.UID)
	assert.Equal(t, "user", byEmail.Role)
	assert.True(t, byEmail.IsActive)

	byUID, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byUID.Email)

	_, err = storage.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_FindUserByEmailPrefix(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "alice@example.com", "hash", "user", true)
	factory.CreateUser(t, "malice@example.com", "hash", "user", true)
	factory.CreateUser(t, "bob.alice@example.com", "hash", "user", true)

	tests := []struct {
		name      string
		prefix    string
		wantEmail string
		wantErr   error
	}{
		{
			name:      "точное совпадение локальной части приоритетнее подстроки",
			prefix:    "alice",
			wantEmail: "alice@example.com",
		},
		{
			name:      "подстрока при отсутствии точного совпадения",
			prefix:    "malic",
			wantEmail: "malice@example.com",
		},
		{
			name:      "при нескольких подстрочных совпадениях берется первый по алфавиту",
			prefix:    "lice@",
			wantEmail: "alice@example.com",
		},
		{
			name:    "не найдено",
			prefix:  "zzz",
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := storage.FindUserByEmailPrefix(context.Background(), tt.prefix)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, user.Email)
		})
	}
}

func TestStorage_SetUserActiveAndCount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUser(t, "alice@example.com", "hash", "user", true)
	factory.CreateUser(t, "bob@example.com", "hash", "user", true)

	updated, err := storage.SetUserActive(context.Background(), uid, false)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	user, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	updated, err = storage.SetUserActive(context.Background(),
		"00000000-0000-0000-0000-000000000000", false)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	total, today, err := storage.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, today)
}

func TestStorage_EnsureProfileDefaults(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUser(t, "alice@example.com", "hash", "user", true)

	err := storage.EnsureProfile(context.Background(), uid)
	require.NoError(t, err)

	profile, err := storage.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusNotSubmitted, profile.KYCStatus)
	assert.Equal(t, "Free Trial", profile.PackageName)
	assert.Nil(t, profile.SubscriptionExpiry)
	assert.Empty(t, profile.Name)

	// Повторный вызов ничего не меняет
	_, err = storage.UpdateProfileInfo(context.Background(), uid,
		models.DummyProfile{Name: "Alice"})
	require.NoError(t, err)
	err = storage.EnsureProfile(context.Background(), uid)
	require.NoError(t, err)
	profile, err = storage.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)

	_, err = storage.GetProfile(context.Background(),
		"00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_SetKYCDocument(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUserWithProfile(t, "alice@example.com", "Alice", "79990001122",
		models.KYCStatusNotSubmitted, true, nil)

	err := storage.SetKYCDocument(context.Background(), uid, "doc-1.pdf")
	require.NoError(t, err)

	profile, err := storage.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "doc-1.pdf", profile.KYCDocumentRef)
	assert.Equal(t, models.KYCStatusPending, profile.KYCStatus)
}

func TestStorage_UpdateKYCStatus_Bulk(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid1 := factory.CreateUserWithProfile(t, "alice@example.com", "Alice", "",
		models.KYCStatusPending, true, nil)
	uid2 := factory.CreateUserWithProfile(t, "bob@example.com", "Bob", "",
		models.KYCStatusPending, true, nil)
	uid3 := factory.CreateUserWithProfile(t, "carol@example.com", "Carol", "",
		models.KYCStatusPending, true, nil)

	updated, err := storage.UpdateKYCStatus(context.Background(),
		[]string{uid1, uid2}, models.KYCStatusVerified)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	for uid, want := range map[string]string{
		uid1: models.KYCStatusVerified,
		uid2: models.KYCStatusVerified,
		uid3: models.KYCStatusPending,
	} {
		profile, err := storage.GetProfile(context.Background(), uid)
		require.NoError(t, err)
		assert.Equal(t, want, profile.KYCStatus)
	}
}

func TestStorage_UpdateSubscription_Bulk(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid1 := factory.CreateUserWithProfile(t, "alice@example.com", "Alice", "",
		models.KYCStatusVerified, true, nil)
	uid2 := factory.CreateUserWithProfile(t, "bob@example.com", "Bob", "",
		models.KYCStatusVerified, true, nil)

	expiry := time.Now().UTC().AddDate(0, 0, 15).Truncate(time.Second)
	updated, err := storage.UpdateSubscription(context.Background(),
		[]string{uid1, uid2}, expiry, "15 Days Pack")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	profile, err := storage.GetProfile(context.Background(), uid1)
	require.NoError(t, err)
	assert.Equal(t, "15 Days Pack", profile.PackageName)
	require.NotNil(t, profile.SubscriptionExpiry)
	assert.WithinDuration(t, expiry, *profile.SubscriptionExpiry, time.Second)
}

func TestStorage_ListProfiles(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	future := time.Now().UTC().AddDate(0, 1, 0)
	factory := NewTestDataFactory(storage)
	factory.CreateUserWithProfile(t, "alice@example.com", "Alice Smith", "79990001122",
		models.KYCStatusVerified, true, &future)
	factory.CreateUserWithProfile(t, "bob@example.com", "Bob Jones", "78880003344",
		models.KYCStatusPending, true, nil)
	factory.CreateUserWithProfile(t, "carol@example.com", "Carol", "77770005566",
		models.KYCStatusNotSubmitted, false, nil)

	tests := []struct {
		name       string
		query      string
		status     string
		wantEmails []string
	}{
		{
			name:       "без фильтров возвращаются все",
			query:      "",
			status:     "all",
			wantEmails: []string{"alice@example.com", "bob@example.com", "carol@example.com"},
		},
		{
			name:       "поиск по email",
			query:      "bob@",
			status:     "all",
			wantEmails: []string{"bob@example.com"},
		},
		{
			name:       "поиск по имени без учета регистра",
			query:      "SMITH",
			status:     "all",
			wantEmails: []string{"alice@example.com"},
		},
		{
			name:       "поиск по номеру телефона",
			query:      "7888000",
			status:     "all",
			wantEmails: []string{"bob@example.com"},
		},
		{
			name:       "фильтр active",
			query:      "",
			status:     "active",
			wantEmails: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:       "фильтр inactive",
			query:      "",
			status:     "inactive",
			wantEmails: []string{"carol@example.com"},
		},
		{
			name:       "фильтр verified",
			query:      "",
			status:     "verified",
			wantEmails: []string{"alice@example.com"},
		},
		{
			name:       "фильтр pending",
			query:      "",
			status:     "pending",
			wantEmails: []string{"bob@example.com"},
		},
		{
			name:       "поиск и фильтр комбинируются",
			query:      "example.com",
			status:     "verified",
			wantEmails: []string{"alice@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := storage.ListProfiles(context.Background(), tt.query, tt.status)
			require.NoError(t, err)

			emails := make([]string, 0, len(items))
			for _, item := range items {
				emails = append(emails, item.Email)
			}
			assert.ElementsMatch(t, tt.wantEmails, emails)
		})
	}
}

func TestStorage_CountAdminStats(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	future := now.AddDate(0, 0, 30)
	past := now.AddDate(0, 0, -1)

	factory := NewTestDataFactory(storage)
	uid1 := factory.CreateUserWithProfile(t, "alice@example.com", "Alice", "",
		models.KYCStatusVerified, true, &future)
	factory.CreateUserWithProfile(t, "bob@example.com", "Bob", "",
		models.KYCStatusPending, true, &past)
	factory.CreateUserWithProfile(t, "carol@example.com", "Carol", "",
		models.KYCStatusPending, true, nil)
	factory.CreateAgentConfig(t, uid1, "page-1", "token-1", "prompt", "sheet-1")

	stats, err := storage.CountAdminStats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 3, stats.NewUsersToday)
	assert.Equal(t, 2, stats.PendingKYC)
	assert.Equal(t, 1, stats.TotalAgentConfigs)
	// nil expiry не считается активной подпиской в счетчике
	assert.Equal(t, 1, stats.ActiveSubscriptions)
}

func TestStorage_SubscriptionHistory(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUserWithProfile(t, "alice@example.com", "Alice", "",
		models.KYCStatusVerified, true, nil)
	other := factory.CreateUserWithProfile(t, "bob@example.com", "Bob", "",
		models.KYCStatusVerified, true, nil)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	factory.CreateHistoryEntry(t, uid, "30 Days Package - Admin Assigned",
		base.AddDate(0, 0, 30), base)
	factory.CreateHistoryEntry(t, other, "7 Days Package - Admin Assigned",
		base.AddDate(0, 0, 7), base)

	id, err := storage.AppendSubscriptionHistory(context.Background(), models.SubscriptionHistory{
		UserUID:     uid,
		PackageName: "45 Days Package - Admin Assigned",
		ExpiryDate:  base.AddDate(0, 0, 45),
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	entries, err := storage.ListSubscriptionHistory(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Новые записи первыми, чужие выдачи не попадают
	assert.Equal(t, "45 Days Package - Admin Assigned", entries[0].PackageName)
	assert.Equal(t, "30 Days Package - Admin Assigned", entries[1].PackageName)
	for _, entry := range entries {
		assert.Equal(t, uid, entry.UserUID)
	}
}

func TestStorage_AgentConfig(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := factory.CreateUser(t, "alice@example.com", "hash", "user", true)

	err := storage.EnsureAgentConfig(context.Background(), uid)
	require.NoError(t, err)

	cfg, err := storage.GetAgentConfig(context.Background(), uid)
	require.NoError(t, err)
	assert.Empty(t, cfg.PageID)
	assert.Empty(t, cfg.PageToken)
	assert.Empty(t, cfg.SystemPrompt)
	assert.Empty(t, cfg.ReportSheetID)

	updated, err := storage.UpdateAgentConfig(context.Background(), uid, models.DummyAgentConfig{
		PageID:        "page-1",
		PageToken:     "token-1",
		SystemPrompt:  "You are a helpful assistant",
		ReportSheetID: "sheet-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	// Частичное обновление меняет только переданные поля
	newPrompt := "Be brief"
	updated, err = storage.PatchAgentConfig(context.Background(), uid, models.PatchAgentConfig{
		SystemPrompt: &newPrompt,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	cfg, err = storage.GetAgentConfig(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "page-1", cfg.PageID)
	assert.Equal(t, "token-1", cfg.PageToken)
	assert.Equal(t, "Be brief", cfg.SystemPrompt)
	assert.Equal(t, "sheet-1", cfg.ReportSheetID)

	_, err = storage.GetAgentConfig(context.Background(),
		"00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}
