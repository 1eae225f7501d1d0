// Package agentpanel предоставляет маршруты для основного приложения.
package agentpanel

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/assignpackage"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/grantsub"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/kycdecision"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/subhistory"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/useractive"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/userinfo"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/admin/userlist"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/agent/autosave"
	agentget "github.com/magabrotheeeer/agent-panel/internal/http/handlers/agent/get"
	agentupdate "github.com/magabrotheeeer/agent-panel/internal/http/handlers/agent/update"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/kyc/submit"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/lookup"
	profileget "github.com/magabrotheeeer/agent-panel/internal/http/handlers/profile/get"
	profileupdate "github.com/magabrotheeeer/agent-panel/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/agent-panel/internal/http/handlers/report/view"
	"github.com/magabrotheeeer/agent-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/agent-panel/internal/lib/jwt"
	agentservice "github.com/magabrotheeeer/agent-panel/internal/services/agent"
	authservice "github.com/magabrotheeeer/agent-panel/internal/services/auth"
	profileservice "github.com/magabrotheeeer/agent-panel/internal/services/profile"
	reportservice "github.com/magabrotheeeer/agent-panel/internal/services/report"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.AuthService, profileService *profileservice.ProfileService,
	agentService *agentservice.AgentService, reportService *reportservice.ReportService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Публичный API для внешних автоматизаций, доступ по общему секрету
		r.Get("/user/{secret}/{email_prefix}/{field}", lookup.New(logger, agentService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/profile", profileget.New(logger, profileService).ServeHTTP)
			r.Put("/profile", profileupdate.New(logger, profileService).ServeHTTP)
			r.Post("/kyc/document", submit.New(logger, profileService).ServeHTTP)

			// Панель агента доступна только после проверки KYC
			// и при действующей подписке
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.KYCVerifiedMiddleware(logger, profileService))
				r.Use(middlewarectx.SubscriptionStatusMiddleware(logger, profileService))

				r.Get("/agent", agentget.New(logger, agentService).ServeHTTP)
				r.Put("/agent", agentupdate.New(logger, agentService).ServeHTTP)
				r.Patch("/agent", autosave.New(logger, agentService).ServeHTTP)
				r.Get("/report", view.New(logger, reportService).ServeHTTP)
			})

			// Административная консоль
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/stats", stats.New(logger, profileService).ServeHTTP)
				r.Get("/users", userlist.New(logger, profileService).ServeHTTP)
				r.Post("/users/{uid}/active", useractive.New(logger, profileService).ServeHTTP)
				r.Put("/users/{uid}/profile", userinfo.New(logger, profileService).ServeHTTP)
				r.Post("/users/{uid}/subscription", grantsub.New(logger, profileService).ServeHTTP)
				r.Get("/users/{uid}/history", subhistory.New(logger, profileService).ServeHTTP)
				r.Post("/kyc/decision", kycdecision.New(logger, profileService).ServeHTTP)
				r.Post("/subscriptions/assign", assignpackage.New(logger, profileService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
