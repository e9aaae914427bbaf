package router

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"realtime_chat_service/internal/chat/api/handlers"
	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

type allowAll struct{}

func (allowAll) CheckAccess(context.Context, string, string) error { return nil }

type emptyLoader struct{}

func (emptyLoader) Load(context.Context, string, int64, int, string) domain.HistoryPage {
	return domain.EmptyPage()
}

func (emptyLoader) CountRecent(context.Context, string, int64) (int64, error) { return 0, nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "chat_router_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	app := fiber.New()
	RegisterRoutes(context.Background(), app, nil, handlers.NewHistoryHandler(allowAll{}, emptyLoader{}), reg)
	return app
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		url    string
		status int
		body   string
	}{
		{name: "health", method: "GET", url: "/", status: fiber.StatusOK, body: "chat service start!"},
		{name: "metrics", method: "GET", url: "/metrics", status: fiber.StatusOK, body: "chat_router_test_total 1"},
		{name: "ws needs upgrade", method: "GET", url: "/ws", status: fiber.StatusUpgradeRequired},
		{name: "history needs token", method: "GET", url: "/rooms/r1/messages", status: fiber.StatusUnauthorized},
		{name: "recent needs token", method: "GET", url: "/rooms/r1/messages/recent?since=1", status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.url, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				b, _ := io.ReadAll(resp.Body)
				assert.True(t, strings.Contains(string(b), tt.body), string(b))
			}
		})
	}
}
