// Package get реализует HTTP-обработчик чтения конфигурации агента.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения конфигурации агента.
type Service interface {
	Get(ctx context.Context, userUID string) (*models.AgentConfig, string, error)
}

// Handler управляет HTTP-запросами на чтение конфигурации агента.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить конфигурацию агента
// @Description Возвращает настройки агента текущего пользователя и вычисленный webhook-URL.
// @Tags Agent
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Конфигурация агента"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /agent [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.agent.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	cfg, webhookURL, err := h.service.Get(r.Context(), userUID)
	if err != nil {
		log.Error("failed to read agent config", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read agent configuration"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"page_id":         cfg.PageID,
		"page_token":      cfg.PageToken,
		"system_prompt":   cfg.SystemPrompt,
		"report_sheet_id": cfg.ReportSheetID,
		"webhook_url":     webhookURL,
	}))
}
