package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"realtime_chat_service/internal/chat/api/handlers"
	"realtime_chat_service/internal/chat/router"
	"realtime_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// 因拆分微服務。此程式用於 swag init 前確認路由表
// swag init -g internal/chat/router/router.go --output ./docs
func main() {
	logger.SetNewNop()

	app := fiber.New()
	router.RegisterRoutes(context.Background(), app, nil, handlers.NewHistoryHandler(nil, nil), prometheus.NewRegistry())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH")
	for _, route := range app.GetRoutes(true) {
		fmt.Fprintf(w, "%s\t%s\n", route.Method, route.Path)
	}
	_ = w.Flush()
}
