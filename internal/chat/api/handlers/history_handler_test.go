package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

type fakeRooms struct {
	err error
}

func (f fakeRooms) CheckAccess(context.Context, string, string) error { return f.err }

type loadCall struct {
	roomID    string
	before    int64
	limit     int
	requester string
}

type fakeLoader struct {
	page     domain.HistoryPage
	count    int64
	countErr error
	calls    []loadCall
}

func (f *fakeLoader) Load(_ context.Context, roomID string, before int64, limit int, requester string) domain.HistoryPage {
	f.calls = append(f.calls, loadCall{roomID: roomID, before: before, limit: limit, requester: requester})
	return f.page
}

func (f *fakeLoader) CountRecent(context.Context, string, int64) (int64, error) {
	return f.count, f.countErr
}

func newHistoryApp(rooms RoomAccessChecker, loader HistoryLoader) *fiber.App {
	h := NewHistoryHandler(rooms, loader)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middlewares.TokenMemberID, "u1")
		return c.Next()
	})
	app.Get("/rooms/:roomId/messages", h.GetMessages)
	app.Get("/rooms/:roomId/messages/recent", h.CountRecent)
	return app
}

func decodeBody(t *testing.T, body io.Reader, out interface{}) {
	t.Helper()
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, out))
}

func TestGetMessages(t *testing.T) {
	loader := &fakeLoader{page: domain.HistoryPage{
		Messages: []domain.MessageResponse{{ID: "m1", Content: "hi", Timestamp: 1000}},
		HasMore:  true,
	}}
	app := newHistoryApp(fakeRooms{}, loader)

	resp, err := app.Test(httptest.NewRequest("GET", "/rooms/r1/messages?before=5000&limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page domain.HistoryPage
	decodeBody(t, resp.Body, &page)
	assert.True(t, page.HasMore)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "m1", page.Messages[0].ID)

	require.Len(t, loader.calls, 1)
	assert.Equal(t, loadCall{roomID: "r1", before: 5000, limit: 10, requester: "u1"}, loader.calls[0])
}

func TestGetMessagesErrors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		rooms  fakeRooms
		status int
	}{
		{name: "negative limit", url: "/rooms/r1/messages?limit=-1", status: fiber.StatusBadRequest},
		{name: "bad before", url: "/rooms/r1/messages?before=yesterday", status: fiber.StatusBadRequest},
		{name: "not a member", url: "/rooms/r1/messages", rooms: fakeRooms{err: domain.ErrRoomAccessDenied}, status: fiber.StatusForbidden},
		{name: "unknown room", url: "/rooms/r1/messages", rooms: fakeRooms{err: domain.ErrRoomNotFound}, status: fiber.StatusForbidden},
		{name: "lookup failure", url: "/rooms/r1/messages", rooms: fakeRooms{err: errors.New("mongo down")}, status: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{}
			app := newHistoryApp(tt.rooms, loader)

			resp, err := app.Test(httptest.NewRequest("GET", tt.url, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var chatErr errprocess.ChatError
			decodeBody(t, resp.Body, &chatErr)
			assert.Equal(t, errprocess.MessageError, chatErr.Code)
			assert.Empty(t, loader.calls)
		})
	}
}

func TestCountRecent(t *testing.T) {
	app := newHistoryApp(fakeRooms{}, &fakeLoader{count: 7})

	resp, err := app.Test(httptest.NewRequest("GET", "/rooms/r1/messages/recent?since=1000", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got RecentCount
	decodeBody(t, resp.Body, &got)
	assert.Equal(t, RecentCount{RoomID: "r1", Count: 7}, got)
}

func TestCountRecentErrors(t *testing.T) {
	resp, err := newHistoryApp(fakeRooms{}, &fakeLoader{}).Test(httptest.NewRequest("GET", "/rooms/r1/messages/recent", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = newHistoryApp(fakeRooms{}, &fakeLoader{countErr: errors.New("mongo down")}).
		Test(httptest.NewRequest("GET", "/rooms/r1/messages/recent?since=1000", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestConnectCheckAndDebugFlag(t *testing.T) {
	app := fiber.New()
	app.Get("/", ConnectCheck)
	app.Post("/debug", DebugLogFlag)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "chat service start!", string(body))

	resp, err = app.Test(httptest.NewRequest("POST", "/debug?status=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/debug?status=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
