package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
)

// SubscriptionServiceInterface определяет интерфейс для проверки подписки пользователя.
type SubscriptionServiceInterface interface {
	GetSubscriptionStatus(ctx context.Context, userUID string, now time.Time) (bool, error)
}

// SubscriptionStatusMiddleware создает middleware для проверки подписки
// пользователя на момент запроса. Истечение определяется лениво, фоновой
// проверки нет. Отказ отличим от общей ошибки авторизации: клиент получает
// код subscription_expired.
func SubscriptionStatusMiddleware(log *slog.Logger, subService SubscriptionServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			active, err := subService.GetSubscriptionStatus(r.Context(), userUID, time.Now().UTC())
			if err != nil {
				log.Error("failed to get subscription status", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if !active {
				log.Info("subscription expired, access denied")
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.ErrorWithCode("subscription expired", response.CodeSubscriptionExpired))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
