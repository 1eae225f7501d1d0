package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// ErrNotFound возвращается методами чтения, когда запись отсутствует.
var ErrNotFound = errors.New("not found")

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, password_hash, role, is_active)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Role, user.IsActive).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, role, is_active, created_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, role, is_active, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// FindUserByEmailPrefix ищет пользователя для публичного API.
// Сначала выполняется точное совпадение локальной части email (prefix@),
// затем поиск подстроки по всему email. При нескольких совпадениях
// подстроки берётся первый по алфавиту email, выбор детерминирован.
func (s *Storage) FindUserByEmailPrefix(ctx context.Context, emailPrefix string) (*models.User, error) {
	const op = "storage.FindUserByEmailPrefix"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, role, is_active, created_at
			  FROM users
			  WHERE email LIKE $1 || '@%'
			  ORDER BY email
			  LIMIT 1`
	user, err := s.scanUser(s.DB.QueryRowContext(ctx, query, emailPrefix), op)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query = `SELECT uid, email, password_hash, role, is_active, created_at
			 FROM users
			 WHERE email ILIKE '%' || $1 || '%'
			 ORDER BY email
			 LIMIT 1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, emailPrefix), op)
}

// SetUserActive включает или выключает учётную запись и возвращает
// количество изменённых строк.
func (s *Storage) SetUserActive(ctx context.Context, userUID string, active bool) (int, error) {
	const op = "storage.SetUserActive"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET is_active = $1 WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, active, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CountUsers возвращает общее количество пользователей и количество
// зарегистрированных сегодня.
func (s *Storage) CountUsers(ctx context.Context) (total, today int, err error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*),
			      COUNT(*) FILTER (WHERE created_at::DATE = CURRENT_DATE)
			  FROM users`
	if err = s.DB.QueryRowContext(ctx, query).Scan(&total, &today); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, today, nil
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
