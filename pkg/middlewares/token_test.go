package middlewares

import (
	"net/http/httptest"
	"testing"

	t_token "realtime_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(TokenMemberID).(string) + "/" + c.Locals(TokenSessionID).(string))
	})
	return app
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTMiddleware_QueryAndHeader(t *testing.T) {
	signed, err := t_token.GenerateJWTWrapper("u1", "s1", string(t_token.RoleMember))
	require.NoError(t, err)

	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/me?auth="+signed, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/me?auth=garbage", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
