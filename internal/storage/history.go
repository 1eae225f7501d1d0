package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// AppendSubscriptionHistory добавляет запись журнала о персональной выдаче
// подписки и возвращает её ID. Журнал только пополняется.
func (s *Storage) AppendSubscriptionHistory(ctx context.Context, entry models.SubscriptionHistory) (int, error) {
	const op = "storage.AppendSubscriptionHistory"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_history (user_uid, package_name, expiry_date)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	if err := s.DB.QueryRowContext(ctx, query,
		entry.UserUID, entry.PackageName, entry.ExpiryDate).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListSubscriptionHistory возвращает журнал выдач подписки пользователя,
// новые записи первыми.
func (s *Storage) ListSubscriptionHistory(ctx context.Context, userUID string) ([]*models.SubscriptionHistory, error) {
	const op = "storage.ListSubscriptionHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, package_name, expiry_date, granted_at
			  FROM subscription_history
			  WHERE user_uid = $1
			  ORDER BY granted_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionHistory
	for rows.Next() {
		var entry models.SubscriptionHistory
		if err = rows.Scan(&entry.ID, &entry.UserUID, &entry.PackageName,
			&entry.ExpiryDate, &entry.GrantedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
