package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
)

// KYCServiceInterface определяет интерфейс для получения KYC-статуса пользователя.
type KYCServiceInterface interface {
	GetKYCStatus(ctx context.Context, userUID string) (string, error)
}

// KYCVerifiedMiddleware создает middleware, которое пропускает к закрытым
// функциям только пользователей с пройденной KYC-проверкой. Отказ отличим
// от общей ошибки авторизации: клиент получает код kyc_required и может
// показать страницу с предложением пройти проверку.
func KYCVerifiedMiddleware(log *slog.Logger, kycService KYCServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			status, err := kycService.GetKYCStatus(r.Context(), userUID)
			if err != nil {
				log.Error("failed to get kyc status", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if status != models.KYCStatusVerified {
				log.Info("kyc verification required, access denied", slog.String("kyc_status", status))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.ErrorWithCode("kyc verification required", response.CodeKYCRequired))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
