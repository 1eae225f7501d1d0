package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// EnsureProfile создаёт пустой профиль пользователя, если его ещё нет.
// Создаваемая запись получает значения по умолчанию: пустые персональные
// поля, статус KYC NOT_SUBMITTED, пакет Free Trial без даты истечения.
// Повторный вызов ничего не меняет.
func (s *Storage) EnsureProfile(ctx context.Context, userUID string) error {
	const op = "storage.EnsureProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO profiles (user_uid)
			  VALUES ($1)
			  ON CONFLICT (user_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProfile возвращает профиль пользователя по его UID.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, name, picture_ref, mobile_number, home_address,
			      kyc_document_ref, kyc_status, subscription_expiry, package_name
			  FROM profiles
			  WHERE user_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	p := &models.Profile{}
	var subscriptionExpiry sql.NullTime
	if err := row.Scan(&p.UserUID, &p.Name, &p.PictureRef, &p.MobileNumber,
		&p.HomeAddress, &p.KYCDocumentRef, &p.KYCStatus, &subscriptionExpiry,
		&p.PackageName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subscriptionExpiry.Valid {
		p.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	return p, nil
}

// UpdateProfileInfo обновляет самостоятельно редактируемые поля профиля
// и возвращает количество изменённых строк.
func (s *Storage) UpdateProfileInfo(ctx context.Context, userUID string, req models.DummyProfile) (int, error) {
	const op = "storage.UpdateProfileInfo"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET name = $1, picture_ref = $2, mobile_number = $3, home_address = $4
			  WHERE user_uid = $5`
	result, err := s.DB.ExecContext(ctx, query,
		req.Name, req.PictureRef, req.MobileNumber, req.HomeAddress, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// SetKYCDocument записывает ссылку на загруженный документ и переводит
// статус KYC в PENDING. Повторная загрузка заменяет прежний документ.
func (s *Storage) SetKYCDocument(ctx context.Context, userUID, documentRef string) error {
	const op = "storage.SetKYCDocument"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET kyc_document_ref = $1, kyc_status = $2
			  WHERE user_uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, documentRef, models.KYCStatusPending, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateKYCStatus выставляет статус KYC для набора профилей и возвращает
// количество изменённых строк.
func (s *Storage) UpdateKYCStatus(ctx context.Context, userUIDs []string, status string) (int, error) {
	const op = "storage.UpdateKYCStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET kyc_status = $1
			  WHERE user_uid = ANY($2)`
	result, err := s.DB.ExecContext(ctx, query, status, userUIDs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateSubscription выставляет дату истечения подписки и название пакета
// для набора профилей, возвращает количество изменённых строк.
func (s *Storage) UpdateSubscription(ctx context.Context, userUIDs []string, expiry time.Time, packageName string) (int, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE profiles
			  SET subscription_expiry = $1, package_name = $2
			  WHERE user_uid = ANY($3)`
	result, err := s.DB.ExecContext(ctx, query, expiry, packageName, userUIDs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListProfiles возвращает профили вместе с email владельца для
// административного списка. Поиск query выполняется по email, имени и
// номеру телефона, statusFilter принимает значения
// all|active|inactive|verified|pending.
func (s *Storage) ListProfiles(ctx context.Context, query, statusFilter string) ([]*models.ProfileListItem, error) {
	const op = "storage.ListProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sqlQuery := `SELECT u.uid, u.email, u.is_active, u.created_at,
			         p.name, p.mobile_number, p.kyc_status, p.subscription_expiry, p.package_name
			     FROM users u
			     JOIN profiles p ON p.user_uid = u.uid
			     WHERE ($1 = '' OR u.email ILIKE '%' || $1 || '%'
			         OR p.name ILIKE '%' || $1 || '%'
			         OR p.mobile_number ILIKE '%' || $1 || '%')
			       AND ($2 = 'all'
			         OR ($2 = 'active' AND u.is_active)
			         OR ($2 = 'inactive' AND NOT u.is_active)
			         OR ($2 = 'verified' AND p.kyc_status = 'VERIFIED')
			         OR ($2 = 'pending' AND p.kyc_status = 'PENDING'))
			     ORDER BY u.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, sqlQuery, query, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ProfileListItem
	for rows.Next() {
		var item models.ProfileListItem
		var subscriptionExpiry sql.NullTime
		if err = rows.Scan(&item.UserUID, &item.Email, &item.IsActive, &item.CreatedAt,
			&item.Name, &item.MobileNumber, &item.KYCStatus, &subscriptionExpiry,
			&item.PackageName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if subscriptionExpiry.Valid {
			item.SubscriptionExpiry = &subscriptionExpiry.Time
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountAdminStats собирает счётчики для административной панели.
func (s *Storage) CountAdminStats(ctx context.Context, now time.Time) (*models.AdminStats, error) {
	const op = "storage.CountAdminStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	stats := &models.AdminStats{}
	total, today, err := s.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.TotalUsers = total
	stats.NewUsersToday = today

	query := `SELECT
			      (SELECT COUNT(*) FROM profiles WHERE kyc_status = 'PENDING'),
			      (SELECT COUNT(*) FROM agent_configs),
			      (SELECT COUNT(*) FROM profiles WHERE subscription_expiry > $1)`
	if err = s.DB.QueryRowContext(ctx, query, now).Scan(
		&stats.PendingKYC, &stats.TotalAgentConfigs,
		&stats.ActiveSubscriptions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
