// Package userlist реализует HTTP-обработчик административного списка
// пользователей с поиском и фильтром по статусу.
package userlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Service описывает интерфейс бизнес-логики списка пользователей.
type Service interface {
	List(ctx context.Context, query, statusFilter string) ([]*models.ProfileListItem, error)
}

// Handler управляет HTTP-запросами на чтение списка пользователей.
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
// @Summary Получить список пользователей
// @Description Возвращает профили с поиском по email и имени и фильтром по статусу.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param q query string false "Подстрока поиска по email или имени"
// @Param status query string false "Фильтр статуса" Enums(all, active, inactive, verified, pending)
// @Success 200 {array} models.ProfileListItem "Список профилей"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query().Get("q")
	statusFilter := r.URL.Query().Get("status")

	items, err := h.service.List(r.Context(), query, statusFilter)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list users"))
		return
	}

	log.Info("user list built", slog.Int("count", len(items)))
	render.JSON(w, r, response.OKWithData(items))
}
