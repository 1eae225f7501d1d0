// Package assignpackage реализует HTTP-обработчик массовой выдачи
// фиксированного пакета подписки на 7, 15 или 30 дней.
package assignpackage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	services "github.com/magabrotheeeer/agent-panel/internal/services/profile"
)

// Request — входные данные массовой выдачи пакета
type Request struct {
	UserUIDs []string `json:"user_uids" validate:"required,min=1,dive,uuid"`
	Days     int      `json:"days" validate:"required,oneof=7 15 30"`
}

// Service описывает интерфейс бизнес-логики массовой выдачи пакетов.
type Service interface {
	AssignPackage(ctx context.Context, userUIDs []string, days int) (int, error)
}

// Handler управляет HTTP-запросами массовой выдачи пакетов.
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
// @Summary Массово выдать пакет подписки
// @Description Выдает набору пользователей пакет на 7, 15 или 30 дней от текущего момента.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Список UID и длительность пакета"
// @Success 200 {object} map[string]any "Количество обновлённых профилей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или длительность"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/subscriptions/assign [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.assignpackage"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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
	log.Info("all fields are validated")

	updated, err := h.service.AssignPackage(r.Context(), req.UserUIDs, req.Days)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDuration) {
			log.Error("invalid package duration", slog.Int("days", req.Days))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid package duration"))
			return
		}
		log.Error("failed to assign package", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not assign package"))
		return
	}

	log.Info("package assigned",
		slog.Int("days", req.Days),
		slog.Int("updated", updated),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated": updated,
	}))
}
