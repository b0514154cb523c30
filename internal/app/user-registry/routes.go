// Package userregistry собирает приложение реестра пользователей:
// хранилище, кеш, публикацию событий, HTTP- и gRPC-серверы.
package userregistry

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/magabrotheeeer/user-registry/docs"
	"github.com/magabrotheeeer/user-registry/internal/http/handlers/health"
	"github.com/magabrotheeeer/user-registry/internal/http/handlers/user/create"
	"github.com/magabrotheeeer/user-registry/internal/http/handlers/user/find"
	"github.com/magabrotheeeer/user-registry/internal/http/handlers/user/read"
	"github.com/magabrotheeeer/user-registry/internal/http/middlewarectx"
	usersvc "github.com/magabrotheeeer/user-registry/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, userService *usersvc.Service, metrics *middlewarectx.Metrics, limiter *rate.Limiter) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Get("/", http.RedirectHandler("/docs/index.html", http.StatusTemporaryRedirect).ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
		r.Post("/create/", create.New(logger, userService).ServeHTTP)
		r.Get("/user/{email}", read.New(logger, userService).ServeHTTP)
		r.Get("/find", find.New(logger, userService).ServeHTTP)
	})

	r.Get("/health", health.New(logger, userService).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
