// Package lookup реализует публичный HTTP-обработчик поиска конфигурации
// агента для внешних автоматизаций. Доступ по общему секрету в пути,
// без JWT. Отдельные поля отдаются простым текстом, поле "all" — JSON.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	services "github.com/magabrotheeeer/agent-panel/internal/services/agent"
)

// Service описывает интерфейс бизнес-логики публичного поиска.
type Service interface {
	Lookup(ctx context.Context, secret, emailPrefix, field string) (string, *services.LookupResult, error)
}

// Handler управляет публичными HTTP-запросами поиска конфигурации.
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
// @Summary Найти поле конфигурации агента
// @Description Возвращает значение поля конфигурации по префиксу email. Поле all возвращает JSON со всеми полями.
// @Tags Lookup
// @Produce  plain
// @Param secret path string true "Общий секрет"
// @Param email_prefix path string true "Локальная часть email"
// @Param field path string true "Имя поля" Enums(page_id, page_token, system_prompt, webhook_url, all)
// @Success 200 {string} string "Значение поля"
// @Failure 400 {object} response.ErrorResponse "Неизвестное поле"
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 404 {object} response.ErrorResponse "Пользователь или конфигурация не найдены"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /user/{secret}/{email_prefix}/{field} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lookup"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	secret := chi.URLParam(r, "secret")
	emailPrefix := chi.URLParam(r, "email_prefix")
	field := chi.URLParam(r, "field")
	log.Info("lookup requested",
		slog.String("email_prefix", emailPrefix),
		slog.String("field", field),
	)

	value, result, err := h.service.Lookup(r.Context(), secret, emailPrefix, field)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			log.Info("lookup rejected: invalid secret")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid access token"))
		case errors.Is(err, services.ErrUserNotFound):
			log.Info("lookup failed: user not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, services.ErrConfigNotFound):
			log.Info("lookup failed: agent configuration not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("agent configuration not found"))
		case errors.Is(err, services.ErrUnknownField):
			log.Info("lookup rejected: unknown field", slog.String("field", field))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(
				"unknown field, valid fields: "+strings.Join(services.LookupFields, ", ")))
		default:
			log.Error("lookup failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal server error"))
		}
		return
	}

	if result != nil {
		render.JSON(w, r, result)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(value)); err != nil {
		log.Error("failed to write lookup response", sl.Err(err))
	}
}
