// Package services содержит бизнес-логику работы с профилями: самостоятельное
// редактирование, KYC-проверку документов и управление подписками.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Ошибки KYC-процесса и выдачи подписок, различаемые обработчиками.
var (
	// ErrAlreadyVerified возвращается при попытке повторной отправки
	// документа после успешной проверки.
	ErrAlreadyVerified = errors.New("kyc already verified")
	// ErrInvalidOutcome возвращается при неизвестном решении по KYC.
	ErrInvalidOutcome = errors.New("invalid kyc outcome")
	// ErrInvalidDuration возвращается при недопустимой длительности пакета.
	ErrInvalidDuration = errors.New("invalid package duration")
)

// Фиксированные длительности массово выдаваемых пакетов в днях.
var packageDurations = map[int]string{
	7:  "7 Days Pack",
	15: "15 Days Pack",
	30: "30 Days Pack",
}

// ProfileRepository определяет методы для работы с профилями в хранилище.
type ProfileRepository interface {
	// GetProfile возвращает профиль пользователя по его UID.
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	// GetUser возвращает пользователя по его UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpdateProfileInfo обновляет самостоятельно редактируемые поля профиля.
	UpdateProfileInfo(ctx context.Context, userUID string, req models.DummyProfile) (int, error)
	// SetKYCDocument записывает ссылку на документ и переводит статус в PENDING.
	SetKYCDocument(ctx context.Context, userUID, documentRef string) error
	// UpdateKYCStatus выставляет статус KYC для набора профилей.
	UpdateKYCStatus(ctx context.Context, userUIDs []string, status string) (int, error)
	// UpdateSubscription выставляет дату истечения и пакет для набора профилей.
	UpdateSubscription(ctx context.Context, userUIDs []string, expiry time.Time, packageName string) (int, error)
	// AppendSubscriptionHistory добавляет запись журнала выдачи подписки.
	AppendSubscriptionHistory(ctx context.Context, entry models.SubscriptionHistory) (int, error)
	// ListSubscriptionHistory возвращает журнал выдач подписки пользователя.
	ListSubscriptionHistory(ctx context.Context, userUID string) ([]*models.SubscriptionHistory, error)
	// SetUserActive включает или выключает учётную запись.
	SetUserActive(ctx context.Context, userUID string, active bool) (int, error)
	// ListProfiles возвращает профили для административного списка.
	ListProfiles(ctx context.Context, query, statusFilter string) ([]*models.ProfileListItem, error)
	// CountAdminStats собирает счётчики для административной панели.
	CountAdminStats(ctx context.Context, now time.Time) (*models.AdminStats, error)
}

// Notifier отправляет пользователю уведомление о решении по KYC.
type Notifier interface {
	SendKYCDecision(email, name, outcome string) error
}

// ProfileService реализует бизнес-логику профилей, KYC и подписок.
type ProfileService struct {
	repo       ProfileRepository
	notifier   Notifier
	uploadsDir string
	log        *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo ProfileRepository, notifier Notifier, uploadsDir string, log *slog.Logger) *ProfileService {
	return &ProfileService{
		repo:       repo,
		notifier:   notifier,
		uploadsDir: uploadsDir,
		log:        log,
	}
}

// Get возвращает профиль пользователя.
func (s *ProfileService) Get(ctx context.Context, userUID string) (*models.Profile, error) {
	return s.repo.GetProfile(ctx, userUID)
}

// Update обновляет самостоятельно редактируемые поля профиля.
func (s *ProfileService) Update(ctx context.Context, userUID string, req models.DummyProfile) (int, error) {
	return s.repo.UpdateProfileInfo(ctx, userUID, req)
}

// SubmitDocument сохраняет загруженный KYC-документ и переводит статус
// профиля в PENDING. Повторная отправка из статусов PENDING и REJECTED
// заменяет прежний документ и заново ставит профиль в очередь на проверку.
// После успешной проверки отправка запрещена: VERIFIED снимает только
// администратор.
func (s *ProfileService) SubmitDocument(ctx context.Context, userUID string, document io.Reader, ext string) (string, error) {
	const op = "profile.SubmitDocument"

	profile, err := s.repo.GetProfile(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if profile.KYCStatus == models.KYCStatusVerified {
		return "", ErrAlreadyVerified
	}

	if err = os.MkdirAll(s.uploadsDir, 0o750); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	documentRef := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.uploadsDir, documentRef))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	written, err := io.Copy(dst, document)
	if closeErr := dst.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if written == 0 {
		_ = os.Remove(filepath.Join(s.uploadsDir, documentRef))
		return "", fmt.Errorf("%s: empty document", op)
	}

	if err = s.repo.SetKYCDocument(ctx, userUID, documentRef); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return documentRef, nil
}

// Decide фиксирует решение администратора по KYC для набора профилей
// и отправляет каждому владельцу уведомление. Отказ почты не откатывает
// решение: ошибки логируются, рассылка продолжается. Возвращает количество
// изменённых профилей.
func (s *ProfileService) Decide(ctx context.Context, userUIDs []string, outcome string) (int, error) {
	const op = "profile.Decide"

	if outcome != models.KYCStatusVerified && outcome != models.KYCStatusRejected {
		return 0, ErrInvalidOutcome
	}

	updated, err := s.repo.UpdateKYCStatus(ctx, userUIDs, outcome)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, uid := range userUIDs {
		user, err := s.repo.GetUser(ctx, uid)
		if err != nil {
			s.log.Error("failed to load user for kyc notification", slog.String("user_uid", uid), sl.Err(err))
			continue
		}
		profile, err := s.repo.GetProfile(ctx, uid)
		if err != nil {
			s.log.Error("failed to load profile for kyc notification", slog.String("user_uid", uid), sl.Err(err))
			continue
		}
		if err = s.notifier.SendKYCDecision(user.Email, profile.Name, outcome); err != nil {
			s.log.Error("failed to send kyc notification", slog.String("email", user.Email), sl.Err(err))
		}
	}
	return updated, nil
}

// GetSubscriptionStatus сообщает, активна ли подписка пользователя
// на момент now.
func (s *ProfileService) GetSubscriptionStatus(ctx context.Context, userUID string, now time.Time) (bool, error) {
	profile, err := s.repo.GetProfile(ctx, userUID)
	if err != nil {
		return false, err
	}
	return profile.IsSubscriptionActive(now), nil
}

// GetKYCStatus возвращает текущий KYC-статус пользователя.
func (s *ProfileService) GetKYCStatus(ctx context.Context, userUID string) (string, error) {
	profile, err := s.repo.GetProfile(ctx, userUID)
	if err != nil {
		return "", err
	}
	return profile.KYCStatus, nil
}

// AssignPackage массово выдает фиксированный пакет на 7, 15 или 30 дней:
// дата истечения — момент вызова плюс длительность. Журнал выдач при
// массовой выдаче не пишется. Возвращает количество изменённых профилей.
func (s *ProfileService) AssignPackage(ctx context.Context, userUIDs []string, days int) (int, error) {
	const op = "profile.AssignPackage"

	packageName, ok := packageDurations[days]
	if !ok {
		return 0, ErrInvalidDuration
	}
	expiry := time.Now().UTC().AddDate(0, 0, days)
	updated, err := s.repo.UpdateSubscription(ctx, userUIDs, expiry, packageName)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// GrantSubscription выдает одному пользователю подписку на произвольное
// число дней и добавляет запись в журнал выдач.
func (s *ProfileService) GrantSubscription(ctx context.Context, userUID string, days int) error {
	const op = "profile.GrantSubscription"

	if days <= 0 {
		return ErrInvalidDuration
	}
	expiry := time.Now().UTC().AddDate(0, 0, days)
	packageName := fmt.Sprintf("%d Days Package", days)
	if _, err := s.repo.UpdateSubscription(ctx, []string{userUID}, expiry, packageName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.AppendSubscriptionHistory(ctx, models.SubscriptionHistory{
		UserUID:     userUID,
		PackageName: packageName + " - Admin Assigned",
		ExpiryDate:  expiry,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// History возвращает журнал персональных выдач подписки пользователя,
// новые записи первыми.
func (s *ProfileService) History(ctx context.Context, userUID string) ([]*models.SubscriptionHistory, error) {
	return s.repo.ListSubscriptionHistory(ctx, userUID)
}

// SetUserActive включает или выключает учётную запись пользователя.
func (s *ProfileService) SetUserActive(ctx context.Context, userUID string, active bool) (int, error) {
	return s.repo.SetUserActive(ctx, userUID, active)
}

// List возвращает профили для административного списка с поиском и фильтром.
func (s *ProfileService) List(ctx context.Context, query, statusFilter string) ([]*models.ProfileListItem, error) {
	if statusFilter == "" {
		statusFilter = "all"
	}
	return s.repo.ListProfiles(ctx, query, statusFilter)
}

// Stats собирает счётчики для административной панели.
func (s *ProfileService) Stats(ctx context.Context) (*models.AdminStats, error) {
	return s.repo.CountAdminStats(ctx, time.Now().UTC())
}
