package router

import (
	"context"

	"realtime_chat_service/internal/chat/api/handlers"
	"realtime_chat_service/internal/chat/app"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "realtime_chat_service/docs" // swagger spec
)

// RegisterRoutes 注册 chat 相关的路由
// @title Realtime Chat Service API
// @version 1.0
// @description Chat history and health endpoints; live traffic goes through /ws
// @host localhost:8084
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func RegisterRoutes(
	ctx context.Context,
	r *fiber.App,
	chatWebsocket *app.ChatWebsocketHandler,
	history *handlers.HistoryHandler,
	gatherer prometheus.Gatherer,
) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", handlers.ConnectCheck)
	r.Post("/debug", handlers.DebugLogFlag)
	r.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.Get("/ws",
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
		middlewares.JWTMiddleware(),
		websocket.New(func(c *websocket.Conn) {
			chatWebsocket.HandleConnection(ctx, c)
		}),
	)

	rooms := r.Group("/rooms", middlewares.JWTMiddleware())
	rooms.Get("/:roomId/messages", history.GetMessages)
	rooms.Get("/:roomId/messages/recent", history.CountRecent)
}
