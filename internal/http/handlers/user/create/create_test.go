package create

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/user-registry/internal/lib/password"
	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req models.DummyUser) error {
	return m.Called(ctx, req).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateHandler(t *testing.T) {
	valid := models.DummyUser{
		Email:    "ann@example.com",
		Password: "secret",
		Name:     "Ann",
		Country:  "Canada",
		Status:   "active",
	}
	validBody := `{"email":"ann@example.com","password":"secret","name":"Ann","country":"Canada","status":"active"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное создание",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, valid).Return(nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"status":"OK","data":{"message":"User created successfully!"}}`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"email":`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "пропущено поле",
			body:           `{"email":"ann@example.com","password":"secret","name":"Ann","country":"Canada"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Status is a required field"}`,
		},
		{
			name:           "невалидный email",
			body:           `{"email":"ann","password":"secret","name":"Ann","country":"Canada","status":"active"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Email is not a valid email"}`,
		},
		{
			name: "email уже занят",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, valid).
					Return(fmt.Errorf("services.user.Create: %w", storage.ErrUserExists)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"user with this email already exists"}`,
		},
		{
			name: "ошибка сервиса",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, valid).Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not create user"}`,
		},
		{
			name: "хешер отверг длинный пароль",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, valid).
					Return(fmt.Errorf("services.user.Create: %w", password.ErrTooLong)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Password must be at most 72 bytes long"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			req := httptest.NewRequest(http.MethodPost, "/create/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestCreateHandler_PasswordTooLong(t *testing.T) {
	mockService := new(MockService)
	handler := New(newNoopLogger(), mockService)

	body := fmt.Sprintf(`{"email":"ann@example.com","password":"%s","name":"Ann","country":"Canada","status":"active"}`,
		bytes.Repeat([]byte("a"), 73))
	req := httptest.NewRequest(http.MethodPost, "/create/", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "field Password must be at most 72 bytes long")
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateHandler_MultibytePassword(t *testing.T) {
	tests := []struct {
		name           string
		password       string
		expectedStatus int
	}{
		// 40 рун, но 80 байт.
		{name: "80 байт", password: strings.Repeat("é", 40), expectedStatus: http.StatusUnprocessableEntity},
		{name: "ровно 72 байта", password: strings.Repeat("é", 36), expectedStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.expectedStatus == http.StatusCreated {
				mockService.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
			}
			handler := New(newNoopLogger(), mockService)

			body := fmt.Sprintf(`{"email":"ann@example.com","password":"%s","name":"Ann","country":"Canada","status":"active"}`,
				tt.password)
			req := httptest.NewRequest(http.MethodPost, "/create/", bytes.NewBufferString(body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			if tt.expectedStatus == http.StatusUnprocessableEntity {
				assert.JSONEq(t, `{"status":"Error","error":"field Password must be at most 72 bytes long"}`, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}
