package userregistry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/user-registry/internal/cache"
	"github.com/magabrotheeeer/user-registry/internal/config"
	"github.com/magabrotheeeer/user-registry/internal/grpc/health"
	"github.com/magabrotheeeer/user-registry/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-registry/internal/lib/password"
	"github.com/magabrotheeeer/user-registry/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/user-registry/internal/lib/sl"
	usersvc "github.com/magabrotheeeer/user-registry/internal/services/user"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

const (
	shutdownTimeout  = 15 * time.Second
	metricsNamespace = "user_registry"
)

type userCache interface {
	usersvc.Cache
	Close() error
}

type App struct {
	server       *http.Server
	grpc         *grpc.Server
	grpcListener net.Listener
	checker      *health.Checker
	logger       *slog.Logger
	store        storage.Store
	cache        userCache
	closers      []func() error
}

// New создаёт все зависимости приложения. Кеш, брокер и gRPC-сервер
// подключаются, только если заданы их адреса.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	store, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a := &App{
		logger: logger,
		store:  store,
		cache:  cache.Noop{},
	}

	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.cache = redisCache
	} else {
		logger.Info("redis address is not set, cache disabled")
	}

	var publisher usersvc.Publisher = rabbitmq.Noop{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.Delay)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, conn.Close)

		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, []rabbitmq.QueueConfig{
			{QueueName: usersvc.RoutingKeyCreated, RoutingKey: usersvc.RoutingKeyCreated},
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, ch.Close)
		publisher = rabbitmq.NewPublisher(ch, cfg.Exchange)
	} else {
		logger.Info("rabbitmq url is not set, events are not published")
	}

	userService := usersvc.New(
		store,
		a.cache,
		publisher,
		password.NewHasher(cfg.PasswordCost),
		cfg.CacheTTL,
		logger,
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, userService, middlewarectx.NewMetrics(metricsNamespace),
		middlewarectx.NewLimiter(cfg.RPS, cfg.Burst))

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.AddressGRPC != "" {
		lis, err := net.Listen("tcp", cfg.AddressGRPC)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.grpcListener = lis
		a.grpc = grpc.NewServer()
		a.checker = health.NewChecker(logger, store, cfg.HealthInterval)
		a.checker.Register(a.grpc)
	}

	return a, nil
}

// Handler возвращает HTTP-обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает серверы и блокируется до отмены ctx или ошибки сервера.
// После остановки закрывает все зависимости.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	checkCtx, stopChecker := context.WithCancel(ctx)
	defer stopChecker()

	if a.grpc != nil {
		go a.checker.Run(checkCtx)
		go func() {
			a.logger.Info("gRPC health server listening on", slog.String("address", a.grpcListener.Addr().String()))
			if err := a.grpc.Serve(a.grpcListener); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down servers gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to shutdown HTTP server", sl.Err(err))
		runErr = errors.Join(runErr, err)
	}
	if a.grpc != nil {
		stopChecker()
		a.grpc.GracefulStop()
	}

	if err := a.Close(); err != nil {
		a.logger.Error("failed to close dependencies", sl.Err(err))
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// Close закрывает брокер, кеш и хранилище.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.grpcListener != nil {
		// после GracefulStop листенер уже закрыт
		_ = a.grpcListener.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
