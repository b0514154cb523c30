// Package find реализует HTTP-обработчик выборки пользователей по фильтру.
//
// Параметры запроса limit, by_name, by_country и status соответствуют полям
// models.UserFilter. Отсутствующий параметр не накладывает ограничений.
package find

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-registry/internal/http/response"
	"github.com/magabrotheeeer/user-registry/internal/lib/sl"
	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

// Handler обрабатывает запросы на выборку пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выборки пользователей.
type Service interface {
	Find(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

var errLimitNotInteger = errors.New("limit must be an integer")

// parseFilter строит фильтр из параметров запроса.
func parseFilter(q url.Values) (models.UserFilter, error) {
	var filter models.UserFilter

	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return filter, errLimitNotInteger
		}
		filter.Limit = &limit
	}
	if q.Has("by_name") {
		v := q.Get("by_name")
		filter.ByName = &v
	}
	if q.Has("by_country") {
		v := q.Get("by_country")
		filter.ByCountry = &v
	}
	if q.Has("status") {
		v := q.Get("status")
		filter.Status = &v
	}
	return filter, nil
}

// ServeHTTP godoc
// @Summary Найти пользователей
// @Description Возвращает пользователей, подходящих под все заданные условия, в порядке добавления.
// @Tags Users
// @Produce  json
// @Param limit query int false "Максимальное количество записей (>= 1)"
// @Param by_name query string false "Имя"
// @Param by_country query string false "Страна"
// @Param status query string false "Статус"
// @Success 200 {array} models.User
// @Failure 400 {object} response.ErrorResponse "limit не является числом"
// @Failure 422 {object} response.ErrorResponse "limit меньше единицы"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /find [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.find"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		log.Error("failed to parse query", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	if err := storage.CheckLimit(filter); err != nil {
		log.Error("invalid limit", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	users, err := h.service.Find(r.Context(), filter)
	if errors.Is(err, storage.ErrInvalidLimit) {
		log.Error("invalid limit", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(storage.ErrInvalidLimit.Error()))
		return
	}
	if err != nil {
		log.Error("failed to find users", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not find users"))
		return
	}
	if users == nil {
		users = []models.User{}
	}

	log.Info("success to find users", slog.Int("count", len(users)))
	render.JSON(w, r, users)
}
