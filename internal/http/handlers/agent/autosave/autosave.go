// Package autosave реализует HTTP-обработчик частичного сохранения
// конфигурации агента. Форма панели автоматически отправляет изменённые
// поля по одному, поэтому отсутствующие в JSON поля не трогаются.
package autosave

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/agent-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Service описывает интерфейс бизнес-логики автосохранения конфигурации.
type Service interface {
	Patch(ctx context.Context, userUID string, req models.PatchAgentConfig) (int, error)
}

// Handler управляет HTTP-запросами автосохранения конфигурации агента.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Автосохранить поля конфигурации агента
// @Description Обновляет только переданные поля настроек агента.
// @Tags Agent
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PatchAgentConfig true "Изменённые поля"
// @Success 200 {object} response.Response "Поля сохранены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /agent [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.agent.autosave"
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

	var req models.PatchAgentConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	updated, err := h.service.Patch(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to autosave agent config", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save agent configuration"))
		return
	}

	log.Info("agent config autosaved", slog.Int("rows", updated))
	render.JSON(w, r, response.OK())
}
