// Package create реализует HTTP-обработчик регистрации нового пользователя.
//
// Handler принимает JSON-запрос с данными пользователя, валидирует их
// и передаёт в сервис. Повторный email возвращает 409.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-registry/internal/http/response"
	"github.com/magabrotheeeer/user-registry/internal/lib/password"
	"github.com/magabrotheeeer/user-registry/internal/lib/sl"
	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

// MessageCreated возвращается в поле data.message при успешном создании.
const MessageCreated = "User created successfully!"

// Handler управляет HTTP-запросами на создание пользователей.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики пользователей
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания пользователя.
type Service interface {
	Create(ctx context.Context, req models.DummyUser) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	validate := validator.New()
	// Регистрация не падает: имя тега непустое, функция задана.
	_ = validate.RegisterValidation("maxbytes", maxBytes)
	return &Handler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// maxBytes ограничивает длину строки в байтах, а не в рунах, как max.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// ServeHTTP godoc
// @Summary Создать пользователя
// @Description Регистрирует нового пользователя. Пароль сохраняется в виде bcrypt-хеша.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.DummyUser true "Данные нового пользователя"
// @Success 201 {object} response.MessageResponse "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании пользователя"
// @Router /create/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Debug("request body decoded", slog.String("email", req.Email))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	err := h.service.Create(r.Context(), req)
	if errors.Is(err, storage.ErrUserExists) {
		log.Info("user already exists", slog.String("email", req.Email))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("user with this email already exists"))
		return
	}
	if errors.Is(err, password.ErrTooLong) {
		log.Info("password is too long", slog.String("email", req.Email))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(fmt.Sprintf("field Password must be at most %d bytes long", password.MaxLength)))
		return
	}
	if err != nil {
		log.Error("failed to create user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create user"))
		return
	}

	log.Info("user created", slog.String("email", req.Email))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]string{
		"message": MessageCreated,
	}))
}
