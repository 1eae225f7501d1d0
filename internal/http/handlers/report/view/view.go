// Package view реализует HTTP-обработчик просмотра отчёта из внешней таблицы.
package view

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	services "github.com/magabrotheeeer/agent-panel/internal/services/report"
)

// Service описывает интерфейс бизнес-логики построения отчёта.
type Service interface {
	Build(ctx context.Context, userUID, filter string) (*services.Result, error)
}

// Handler управляет HTTP-запросами на просмотр отчёта.
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
// @Summary Просмотреть отчёт
// @Description Загружает CSV из привязанной таблицы, фильтрует по подстроке и возвращает строки от новых к старым.
// @Tags Report
// @Produce  json
// @Security BearerAuth
// @Param filter query string false "Подстрока для фильтра по всем колонкам"
// @Success 200 {object} map[string]any "Содержимое отчёта"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /report [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.view"
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

	filter := r.URL.Query().Get("filter")
	result, err := h.service.Build(r.Context(), userUID, filter)
	if err != nil {
		log.Error("failed to build report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build report"))
		return
	}

	log.Info("report built", slog.Int("rows", len(result.Rows)))
	render.JSON(w, r, response.OKWithData(result))
}
