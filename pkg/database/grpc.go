package database

import (
	"fmt"
	"net"

	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer grpc health probe for the chat service
type HealthServer struct {
	Server *grpc.Server
	health *health.Server
}

// NewHealthServer create grpc server with the standard health service registered
func NewHealthServer(serviceName string) *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	h.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{Server: s, health: h}
}

// Serve blocking
func (h *HealthServer) Serve(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", port, err)
	}
	logger.Log.Info("grpc health server listening", zap.String("port", port))
	return h.Server.Serve(lis)
}

// Shutdown mark not serving then stop
func (h *HealthServer) Shutdown() {
	h.health.Shutdown()
	h.Server.GracefulStop()
}
