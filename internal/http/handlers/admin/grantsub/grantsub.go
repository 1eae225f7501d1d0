// Package grantsub реализует HTTP-обработчик выдачи подписки одному
// пользователю на произвольное число дней. В отличие от массовой выдачи
// пакетов сюда пишется запись в журнал выдач.
package grantsub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	services "github.com/magabrotheeeer/agent-panel/internal/services/profile"
)

// Request — входные данные выдачи подписки одному пользователю
type Request struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// Service описывает интерфейс бизнес-логики выдачи подписки.
type Service interface {
	GrantSubscription(ctx context.Context, userUID string, days int) error
}

// Handler управляет HTTP-запросами выдачи подписки.
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
// @Summary Выдать подписку пользователю
// @Description Выдает одному пользователю подписку на произвольное число дней с записью в журнал.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param request body Request true "Число дней подписки"
// @Success 200 {object} response.Response "Подписка выдана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или число дней"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{uid}/subscription [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grantsub"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")

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

	if err := h.service.GrantSubscription(r.Context(), userUID, req.Days); err != nil {
		if errors.Is(err, services.ErrInvalidDuration) {
			log.Error("invalid subscription duration", slog.Int("days", req.Days))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid subscription duration"))
			return
		}
		log.Error("failed to grant subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not grant subscription"))
		return
	}

	log.Info("subscription granted",
		slog.String("user_uid", userUID),
		slog.Int("days", req.Days),
	)
	render.JSON(w, r, response.OK())
}
