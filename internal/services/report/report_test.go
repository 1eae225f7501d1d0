package services

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/agent-panel/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetAgentConfig(ctx context.Context, userUID string) (*models.AgentConfig, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentConfig), args.Error(1)
}

func newTestService(repo *RepoMock, exportURL string) *ReportService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewReportService(repo, exportURL, 5*time.Second, logger)
}

func repoWithSheet(sheetID string) *RepoMock {
	repo := new(RepoMock)
	repo.On("GetAgentConfig", mock.Anything, "uid-1").
		Return(&models.AgentConfig{UserUID: "uid-1", ReportSheetID: sheetID}, nil)
	return repo
}

func TestBuild(t *testing.T) {
	const sheetCSV = "Date,Client,Status\n" +
		"2025-01-01,Alice,new\n" +
		"2025-01-02,Bob,closed\n" +
		"2025-01-03,alice smith,new\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet-1/export", r.URL.Path)
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer server.Close()

	t.Run("строки в обратном порядке", func(t *testing.T) {
		svc := newTestService(repoWithSheet("sheet-1"), server.URL+"/%s/export")

		result, err := svc.Build(context.Background(), "uid-1", "")

		require.NoError(t, err)
		assert.Empty(t, result.Error)
		assert.Equal(t, []string{"Date", "Client", "Status"}, result.Header)
		require.Len(t, result.Rows, 3)
		assert.Equal(t, "2025-01-03", result.Rows[0][0])
		assert.Equal(t, "2025-01-01", result.Rows[2][0])
	})

	t.Run("фильтр без учёта регистра", func(t *testing.T) {
		svc := newTestService(repoWithSheet("sheet-1"), server.URL+"/%s/export")

		result, err := svc.Build(context.Background(), "uid-1", "ALICE")

		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, "alice smith", result.Rows[0][1])
		assert.Equal(t, "Alice", result.Rows[1][1])
	})

	t.Run("фильтр без совпадений", func(t *testing.T) {
		svc := newTestService(repoWithSheet("sheet-1"), server.URL+"/%s/export")

		result, err := svc.Build(context.Background(), "uid-1", "no-such-client")

		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.Empty(t, result.Error)
	})
}

func TestBuild_PadsShortRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("A,B,C\nonly-one\n"))
	}))
	defer server.Close()

	svc := newTestService(repoWithSheet("sheet-1"), server.URL+"/%s/export")
	result, err := svc.Build(context.Background(), "uid-1", "")

	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"only-one", "", ""}, result.Rows[0])
}

func TestBuild_NoSheetConfigured(t *testing.T) {
	svc := newTestService(repoWithSheet(""), "http://unused/%s")

	result, err := svc.Build(context.Background(), "uid-1", "")

	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Empty(t, result.Rows)
}

func TestBuild_FetchErrorBecomesMessage(t *testing.T) {
	t.Run("источник недоступен", func(t *testing.T) {
		svc := newTestService(repoWithSheet("sheet-1"), "http://127.0.0.1:1/%s")

		result, err := svc.Build(context.Background(), "uid-1", "")

		require.NoError(t, err)
		assert.Equal(t, "could not load report data", result.Error)
		assert.Empty(t, result.Rows)
	})

	t.Run("источник отвечает ошибкой", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		svc := newTestService(repoWithSheet("sheet-1"), server.URL+"/%s")
		result, err := svc.Build(context.Background(), "uid-1", "")

		require.NoError(t, err)
		assert.Equal(t, "could not load report data", result.Error)
		assert.Empty(t, result.Rows)
	})
}
