// Package subhistory реализует HTTP-обработчик просмотра журнала
// персональных выдач подписки пользователя.
package subhistory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// Service описывает интерфейс бизнес-логики журнала выдач.
type Service interface {
	History(ctx context.Context, userUID string) ([]*models.SubscriptionHistory, error)
}

// Handler управляет HTTP-запросами журнала выдач подписки.
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
// @Summary Журнал выдач подписки пользователя
// @Description Возвращает записи о персональных выдачах подписки, новые первыми.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} response.Response "Журнал выдач"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{uid}/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subhistory"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")

	entries, err := h.service.History(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load subscription history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load subscription history"))
		return
	}

	log.Info("subscription history loaded",
		slog.String("user_uid", userUID),
		slog.Int("count", len(entries)),
	)
	render.JSON(w, r, response.OKWithData(entries))
}
