package lookup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	services "github.com/magabrotheeeer/agent-panel/internal/services/agent"
)

// MockService реализует интерфейс lookup.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Lookup(ctx context.Context, secret, emailPrefix, field string) (string, *services.LookupResult, error) {
	args := m.Called(ctx, secret, emailPrefix, field)
	var result *services.LookupResult
	if args.Get(1) != nil {
		result = args.Get(1).(*services.LookupResult)
	}
	return args.String(0), result, args.Error(2)
}

func TestLookupHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		secret         string
		emailPrefix    string
		field          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "значение отдельного поля простым текстом",
			secret:      "shared-secret",
			emailPrefix: "alice",
			field:       "page_id",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "shared-secret", "alice", "page_id").
					Return("page-123", nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "page-123",
		},
		{
			name:        "поле all возвращает JSON",
			secret:      "shared-secret",
			emailPrefix: "alice",
			field:       "all",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "shared-secret", "alice", "all").
					Return("", &services.LookupResult{
						Email:       "alice@test.com",
						EmailPrefix: "alice",
						PageID:      "page-123",
						WebhookURL:  "https://hooks.test.com/webhook/alice",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"webhook_url":"https://hooks.test.com/webhook/alice"`,
		},
		{
			name:        "неверный секрет",
			secret:      "wrong",
			emailPrefix: "alice",
			field:       "page_id",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "wrong", "alice", "page_id").
					Return("", nil, services.ErrUnauthorized)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid access token"}`,
		},
		{
			name:        "пользователь не найден",
			secret:      "shared-secret",
			emailPrefix: "nobody",
			field:       "page_id",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "shared-secret", "nobody", "page_id").
					Return("", nil, services.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"user not found"}`,
		},
		{
			name:        "конфигурация не найдена",
			secret:      "shared-secret",
			emailPrefix: "alice",
			field:       "page_id",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "shared-secret", "alice", "page_id").
					Return("", nil, services.ErrConfigNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"agent configuration not found"}`,
		},
		{
			name:        "неизвестное поле",
			secret:      "shared-secret",
			emailPrefix: "alice",
			field:       "password_hash",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "shared-secret", "alice", "password_hash").
					Return("", nil, services.ErrUnknownField)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `unknown field, valid fields: page_id, page_token, system_prompt, webhook_url, all`,
		},
		{
			name:        "сбой хранилища возвращает 500",
			secret:      "shared-secret",
			emailPrefix: "alice",
			field:       "page_id",
			setupMock: func(m *MockService) {
				m.On("Lookup", mock.Anything, "shared-secret", "alice", "page_id").
					Return("", nil, errors.New("agent.Lookup: pq: connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet,
				"/user/"+tt.secret+"/"+tt.emailPrefix+"/"+tt.field, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("secret", tt.secret)
			rctx.URLParams.Add("email_prefix", tt.emailPrefix)
			rctx.URLParams.Add("field", tt.field)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
