// Package agentpanel собирает приложение панели AI-агентов: хранилище,
// кеш, сервисы, HTTP-сервер и его жизненный цикл.
package agentpanel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/agent-panel/internal/cache"
	"github.com/magabrotheeeer/agent-panel/internal/config"
	"github.com/magabrotheeeer/agent-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/agent-panel/internal/lib/smtp"
	"github.com/magabrotheeeer/agent-panel/internal/migrations"
	agentservice "github.com/magabrotheeeer/agent-panel/internal/services/agent"
	authservice "github.com/magabrotheeeer/agent-panel/internal/services/auth"
	profileservice "github.com/magabrotheeeer/agent-panel/internal/services/profile"
	reportservice "github.com/magabrotheeeer/agent-panel/internal/services/report"
	senderservice "github.com/magabrotheeeer/agent-panel/internal/services/sender"
	"github.com/magabrotheeeer/agent-panel/internal/storage"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
}

// New собирает приложение: подключает PostgreSQL и Redis, накатывает
// миграции, конструирует сервисы и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	transport := smtp.NewTransport(cfg, logger)

	senderService := senderservice.NewSenderService(transport, logger)
	authService := authservice.NewAuthService(db, jwtMaker)
	profileService := profileservice.NewProfileService(db, senderService, cfg.UploadsDir, logger)
	agentService := agentservice.NewAgentService(db, cacheRedis,
		cfg.LookupSecret, cfg.WebhookBaseURL, cfg.CacheTTL, logger)
	reportService := reportservice.NewReportService(db, cfg.SheetExportURL, cfg.FetchTimeout, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker,
		authService, profileService, agentService, reportService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или ошибки
// сервера. При отмене контекста сервер останавливается с таймаутом.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		return err
	}
}
