// Package stats реализует HTTP-обработчик счётчиков административной панели.
package stats

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

// Service описывает интерфейс бизнес-логики административной статистики.
type Service interface {
	Stats(ctx context.Context) (*models.AdminStats, error)
}

// Handler управляет HTTP-запросами на чтение статистики.
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
// @Summary Получить статистику панели
// @Description Возвращает счётчики пользователей, подписок и очереди KYC.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.AdminStats "Счётчики панели"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error("failed to count stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not count stats"))
		return
	}

	render.JSON(w, r, response.OKWithData(stats))
}
