// Package kycdecision реализует HTTP-обработчик массового решения по KYC.
//
// Администратор отправляет список UID и решение VERIFIED или REJECTED;
// каждому владельцу профиля уходит письмо с результатом проверки.
package kycdecision

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

// Request — входные данные массового решения по KYC
type Request struct {
	UserUIDs []string `json:"user_uids" validate:"required,min=1,dive,uuid"`
	Outcome  string   `json:"outcome" validate:"required,oneof=VERIFIED REJECTED"`
}

// Service описывает интерфейс бизнес-логики решения по KYC.
type Service interface {
	Decide(ctx context.Context, userUIDs []string, outcome string) (int, error)
}

// Handler управляет HTTP-запросами массового решения по KYC.
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
// @Summary Принять решение по KYC
// @Description Массово подтверждает или отклоняет документы и рассылает владельцам письма.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Список UID и решение"
// @Success 200 {object} map[string]any "Количество обновлённых профилей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или решение"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/kyc/decision [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.kycdecision"
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

	updated, err := h.service.Decide(r.Context(), req.UserUIDs, req.Outcome)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOutcome) {
			log.Error("invalid kyc outcome", slog.String("outcome", req.Outcome))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid kyc outcome"))
			return
		}
		log.Error("failed to apply kyc decision", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not apply kyc decision"))
		return
	}

	log.Info("kyc decision applied",
		slog.String("outcome", req.Outcome),
		slog.Int("updated", updated),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated": updated,
	}))
}
