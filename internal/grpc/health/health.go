// Package health реализует стандартный gRPC-сервис проверки состояния
// (grpc.health.v1). Статус определяется периодической проверкой хранилища.
package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/user-registry/internal/lib/sl"
)

// ServiceName задаёт имя, под которым публикуется статус сервиса.
// Пустое имя отвечает за состояние сервера в целом.
const ServiceName = "user_registry.UserRegistry"

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker обновляет статус health-сервера по результату Pinger.Ping.
type Checker struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	log      *slog.Logger
}

// NewChecker создаёт Checker. До первой проверки сервис считается NOT_SERVING.
func NewChecker(log *slog.Logger, pinger Pinger, interval time.Duration) *Checker {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Checker{
		server:   srv,
		pinger:   pinger,
		interval: interval,
		log:      log,
	}
}

// Register регистрирует health-сервис на gRPC-сервере.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.server)
}

// Check выполняет одну проверку и выставляет статус.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := c.pinger.Ping(ctx); err != nil {
		c.log.Warn("storage ping failed", slog.String("op", "grpc.health.Check"), sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
	return status
}

// Run проверяет хранилище каждые interval до отмены ctx,
// после чего переводит все сервисы в NOT_SERVING.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
