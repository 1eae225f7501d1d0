package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// EnsureAgentConfig создаёт пустую конфигурацию агента, если её ещё нет.
// Создаваемая запись получает пустые строки во всех полях. Повторный вызов
// ничего не меняет.
func (s *Storage) EnsureAgentConfig(ctx context.Context, userUID string) error {
	const op = "storage.EnsureAgentConfig"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO agent_configs (user_uid)
			  VALUES ($1)
			  ON CONFLICT (user_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetAgentConfig возвращает конфигурацию агента по UID владельца.
func (s *Storage) GetAgentConfig(ctx context.Context, userUID string) (*models.AgentConfig, error) {
	const op = "storage.GetAgentConfig"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, page_id, page_token, system_prompt, report_sheet_id
			  FROM agent_configs
			  WHERE user_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	cfg := &models.AgentConfig{}
	if err := row.Scan(&cfg.UserUID, &cfg.PageID, &cfg.PageToken,
		&cfg.SystemPrompt, &cfg.ReportSheetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

// UpdateAgentConfig полностью обновляет конфигурацию агента и возвращает
// количество изменённых строк.
func (s *Storage) UpdateAgentConfig(ctx context.Context, userUID string, req models.DummyAgentConfig) (int, error) {
	const op = "storage.UpdateAgentConfig"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE agent_configs
			  SET page_id = $1, page_token = $2, system_prompt = $3, report_sheet_id = $4
			  WHERE user_uid = $5`
	result, err := s.DB.ExecContext(ctx, query,
		req.PageID, req.PageToken, req.SystemPrompt, req.ReportSheetID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// PatchAgentConfig обновляет только переданные поля конфигурации (nil —
// поле не меняется) и возвращает количество изменённых строк. Используется
// автосохранением формы.
func (s *Storage) PatchAgentConfig(ctx context.Context, userUID string, req models.PatchAgentConfig) (int, error) {
	const op = "storage.PatchAgentConfig"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE agent_configs
			  SET page_id = COALESCE($1, page_id),
			      page_token = COALESCE($2, page_token),
			      system_prompt = COALESCE($3, system_prompt),
			      report_sheet_id = COALESCE($4, report_sheet_id)
			  WHERE user_uid = $5`
	result, err := s.DB.ExecContext(ctx, query,
		req.PageID, req.PageToken, req.SystemPrompt, req.ReportSheetID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
