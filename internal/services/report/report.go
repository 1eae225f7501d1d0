// Package services содержит бизнес-логику просмотра табличного отчёта:
// загрузку CSV-выгрузки внешней таблицы, разбор, фильтрацию и подготовку
// строк к отображению.
package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Result — результат построения отчёта. Ошибки загрузки и разбора не
// прерывают запрос: сообщение помещается в поле Error, строки остаются
// пустыми.
type Result struct {
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
	Error  string     `json:"error,omitempty"`
}

// ConfigRepository отдаёт конфигурацию агента владельца отчёта.
type ConfigRepository interface {
	GetAgentConfig(ctx context.Context, userUID string) (*models.AgentConfig, error)
}

// ReportService загружает и готовит отчёт по идентификатору таблицы
// из конфигурации пользователя.
type ReportService struct {
	repo           ConfigRepository
	client         *http.Client
	sheetExportURL string // шаблон адреса выгрузки с %s вместо идентификатора таблицы
	log            *slog.Logger
}

// NewReportService создает новый экземпляр ReportService. Таймаут запроса
// к внешнему источнику задаётся конфигом.
func NewReportService(repo ConfigRepository, sheetExportURL string, fetchTimeout time.Duration, log *slog.Logger) *ReportService {
	return &ReportService{
		repo:           repo,
		client:         &http.Client{Timeout: fetchTimeout},
		sheetExportURL: sheetExportURL,
		log:            log,
	}
}

// Build загружает CSV-выгрузку таблицы пользователя и готовит строки:
// фильтрует по подстроке без учёта регистра по всем колонкам, разворачивает
// порядок строк (свежие сверху) и дополняет короткие строки пустыми
// значениями. Отсутствие настроенной таблицы — пустой результат без ошибки;
// ошибки загрузки и разбора превращаются в сообщение в результате.
func (s *ReportService) Build(ctx context.Context, userUID, filter string) (*Result, error) {
	const op = "report.Build"

	cfg, err := s.repo.GetAgentConfig(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.ReportSheetID == "" {
		return &Result{Rows: [][]string{}}, nil
	}

	records, err := s.fetch(ctx, cfg.ReportSheetID)
	if err != nil {
		s.log.Error("failed to fetch report sheet", sl.Err(err))
		return &Result{Rows: [][]string{}, Error: "could not load report data"}, nil
	}
	if len(records) == 0 {
		return &Result{Rows: [][]string{}}, nil
	}

	header := records[0]
	rows := filterRows(records[1:], filter)
	reverseRows(rows)
	padRows(rows, len(header))

	return &Result{Header: header, Rows: rows}, nil
}

// fetch выполняет запрос к внешней выгрузке и разбирает CSV.
func (s *ReportService) fetch(ctx context.Context, sheetID string) ([][]string, error) {
	const op = "report.fetch"

	url := fmt.Sprintf(s.sheetExportURL, sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// filterRows оставляет строки, где хотя бы одна колонка содержит filter
// без учёта регистра. Пустой фильтр пропускает все строки.
func filterRows(rows [][]string, filter string) [][]string {
	if filter == "" {
		return rows
	}
	filter = strings.ToLower(filter)
	var result [][]string
	for _, row := range rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), filter) {
				result = append(result, row)
				break
			}
		}
	}
	if result == nil {
		result = [][]string{}
	}
	return result
}

// reverseRows разворачивает порядок строк, свежие записи оказываются сверху.
func reverseRows(rows [][]string) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// padRows дополняет короткие строки пустыми значениями до ширины width.
func padRows(rows [][]string, width int) {
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
}
