// Package services содержит бизнес-логику конфигураций AI-агента:
// чтение и изменение настроек владельцем, вычисление webhook-URL
// и публичный поиск конфигурации по префиксу email.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	"github.com/magabrotheeeer/agent-panel/internal/models"
	"github.com/magabrotheeeer/agent-panel/internal/storage"
)

// Ошибки публичного поиска, различаемые обработчиком по HTTP-статусу.
var (
	// ErrUnauthorized возвращается при несовпадении общего секрета.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrConfigNotFound возвращается, когда у пользователя нет конфигурации.
	ErrConfigNotFound = errors.New("agent configuration not found")
	// ErrUnknownField возвращается при запросе неизвестного поля.
	ErrUnknownField = errors.New("unknown field")
)

// LookupFields перечисляет допустимые имена полей публичного API.
// Закрытый набор: неизвестные имена отклоняются явно.
var LookupFields = []string{"page_id", "page_token", "system_prompt", "webhook_url", "all"}

// LookupResult — полный ответ публичного API для поля "all".
type LookupResult struct {
	Email        string `json:"email"`
	EmailPrefix  string `json:"email_prefix"`
	PageID       string `json:"page_id"`
	PageToken    string `json:"page_token"`
	SystemPrompt string `json:"system_prompt"`
	WebhookURL   string `json:"webhook_url"`
}

// lookupAccessors — таблица диспетчеризации имени поля в его значение.
var lookupAccessors = map[string]func(*LookupResult) string{
	"page_id":       func(r *LookupResult) string { return r.PageID },
	"page_token":    func(r *LookupResult) string { return r.PageToken },
	"system_prompt": func(r *LookupResult) string { return r.SystemPrompt },
	"webhook_url":   func(r *LookupResult) string { return r.WebhookURL },
}

// AgentConfigRepository определяет методы для работы с конфигурациями в хранилище.
type AgentConfigRepository interface {
	// GetAgentConfig возвращает конфигурацию агента по UID владельца.
	GetAgentConfig(ctx context.Context, userUID string) (*models.AgentConfig, error)
	// UpdateAgentConfig полностью обновляет конфигурацию агента.
	UpdateAgentConfig(ctx context.Context, userUID string, req models.DummyAgentConfig) (int, error)
	// PatchAgentConfig обновляет только переданные поля конфигурации.
	PatchAgentConfig(ctx context.Context, userUID string, req models.PatchAgentConfig) (int, error)
	// GetUser возвращает пользователя по его UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// FindUserByEmailPrefix ищет пользователя по префиксу email.
	FindUserByEmailPrefix(ctx context.Context, emailPrefix string) (*models.User, error)
}

// Cache описывает методы для кэширования ответов публичного API.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// AgentService реализует бизнес-логику конфигураций агента и публичный поиск.
type AgentService struct {
	repo           AgentConfigRepository
	cache          Cache
	lookupSecret   string
	webhookBaseURL string
	cacheTTL       time.Duration
	log            *slog.Logger
}

// NewAgentService создает новый экземпляр AgentService. Общий секрет и
// базовый адрес webhook передаются явно при конструировании, глобального
// состояния сервис не держит.
func NewAgentService(repo AgentConfigRepository, cache Cache, lookupSecret, webhookBaseURL string,
	cacheTTL time.Duration, log *slog.Logger) *AgentService {
	return &AgentService{
		repo:           repo,
		cache:          cache,
		lookupSecret:   lookupSecret,
		webhookBaseURL: webhookBaseURL,
		cacheTTL:       cacheTTL,
		log:            log,
	}
}

// WebhookURL вычисляет webhook-URL пользователя: базовый адрес плюс
// локальная часть его email. Значение нигде не хранится.
func (s *AgentService) WebhookURL(email string) string {
	return fmt.Sprintf("%s/webhook/%s", s.webhookBaseURL, models.EmailPrefix(email))
}

// Get возвращает конфигурацию агента вместе с вычисленным webhook-URL.
func (s *AgentService) Get(ctx context.Context, userUID string) (*models.AgentConfig, string, error) {
	cfg, err := s.repo.GetAgentConfig(ctx, userUID)
	if err != nil {
		return nil, "", err
	}
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, "", err
	}
	return cfg, s.WebhookURL(user.Email), nil
}

// Update полностью обновляет конфигурацию агента и сбрасывает кеш
// публичного API. Возвращает количество изменённых строк.
func (s *AgentService) Update(ctx context.Context, userUID string, req models.DummyAgentConfig) (int, error) {
	updated, err := s.repo.UpdateAgentConfig(ctx, userUID, req)
	if err != nil {
		return 0, err
	}
	s.invalidateLookupCache(ctx, userUID)
	return updated, nil
}

// Patch обновляет только переданные поля конфигурации (автосохранение формы)
// и сбрасывает кеш публичного API. Возвращает количество изменённых строк.
func (s *AgentService) Patch(ctx context.Context, userUID string, req models.PatchAgentConfig) (int, error) {
	updated, err := s.repo.PatchAgentConfig(ctx, userUID, req)
	if err != nil {
		return 0, err
	}
	s.invalidateLookupCache(ctx, userUID)
	return updated, nil
}

// Lookup обслуживает публичный API: по общему секрету, префиксу email
// и имени поля возвращает значение поля, а для поля "all" — полный ответ.
// Секрет сравнивается за константное время. Отсутствие пользователя,
// отсутствие конфигурации и неизвестное поле — три различимые ошибки.
func (s *AgentService) Lookup(ctx context.Context, secret, emailPrefix, field string) (string, *LookupResult, error) {
	const op = "agent.Lookup"

	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.lookupSecret)) != 1 {
		return "", nil, ErrUnauthorized
	}

	if field != "all" {
		if _, ok := lookupAccessors[field]; !ok {
			return "", nil, ErrUnknownField
		}
	}

	cacheKey := "lookup:" + emailPrefix
	var result LookupResult
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Error("lookup cache read failed", sl.Err(err))
	}
	if !found {
		user, err := s.repo.FindUserByEmailPrefix(ctx, emailPrefix)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", nil, ErrUserNotFound
			}
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		cfg, err := s.repo.GetAgentConfig(ctx, user.UID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", nil, ErrConfigNotFound
			}
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		result = LookupResult{
			Email:        user.Email,
			EmailPrefix:  user.EmailPrefix(),
			PageID:       cfg.PageID,
			PageToken:    cfg.PageToken,
			SystemPrompt: cfg.SystemPrompt,
			WebhookURL:   s.WebhookURL(user.Email),
		}
		if err = s.cache.Set(cacheKey, result, s.cacheTTL); err != nil {
			s.log.Error("lookup cache write failed", sl.Err(err))
		}
	}

	if field == "all" {
		return "", &result, nil
	}
	return lookupAccessors[field](&result), nil, nil
}

// invalidateLookupCache сбрасывает кеш публичного API для владельца
// конфигурации. Ошибки кеша не прерывают запрос.
func (s *AgentService) invalidateLookupCache(ctx context.Context, userUID string) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Error("failed to load user for cache invalidation", sl.Err(err))
		return
	}
	if err = s.cache.Invalidate("lookup:" + user.EmailPrefix()); err != nil {
		s.log.Error("failed to invalidate lookup cache", sl.Err(err))
	}
}
