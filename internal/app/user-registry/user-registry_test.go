package userregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-registry/internal/config"
	"github.com/magabrotheeeer/user-registry/internal/models"
	"github.com/magabrotheeeer/user-registry/internal/storage"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(backend, dsn string) *config.Config {
	return &config.Config{
		Env:          "local",
		CacheTTL:     time.Minute,
		PasswordCost: 4,
		Storage: config.Storage{
			Backend:          backend,
			ConnectionString: dsn,
		},
		HTTPServer: config.HTTPServer{
			AddressHTTP: "127.0.0.1:0",
			TimeoutHTTP: 4 * time.Second,
			IdleTimeout: time.Minute,
		},
		GRPCServer: config.GRPCServer{HealthInterval: time.Second},
		RateLimit:  config.RateLimit{Burst: 10},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	a, err := New(context.Background(), cfg, newNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func userBody(email, name, country, status string) string {
	b, _ := json.Marshal(models.DummyUser{
		Email:    email,
		Password: "secret-" + name,
		Name:     name,
		Country:  country,
		Status:   status,
	})
	return string(b)
}

func decodeUsers(t *testing.T, w *httptest.ResponseRecorder) []models.User {
	t.Helper()
	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	return users
}

func TestApp_UserFlow(t *testing.T) {
	backends := []struct {
		name string
		cfg  *config.Config
	}{
		{name: "memory", cfg: testConfig(config.BackendMemory, "")},
		{name: "sqlite", cfg: testConfig(config.BackendSQLite, ":memory:")},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			h := newTestApp(t, b.cfg)

			for _, body := range []string{
				userBody("a@x.io", "A", "Canada", "Student"),
				userBody("b@x.io", "B", "Peru", "Worker"),
				userBody("c@x.io", "C", "Canada", "Student"),
			} {
				w := do(t, h, http.MethodPost, "/create/", body)
				require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
				assert.JSONEq(t, `{"status":"OK","data":{"message":"User created successfully!"}}`, w.Body.String())
			}

			w := do(t, h, http.MethodGet, "/user/a@x.io", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"email":"a@x.io","name":"A","country":"Canada","status":"Student"}`, w.Body.String())

			w = do(t, h, http.MethodGet, "/user/nobody@x.io", "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"status":"Error","error":"user not found"}`, w.Body.String())

			w = do(t, h, http.MethodGet, "/find?status=Student&limit=1", "")
			require.Equal(t, http.StatusOK, w.Code)
			users := decodeUsers(t, w)
			require.Len(t, users, 1)
			assert.Equal(t, "a@x.io", users[0].Email)

			w = do(t, h, http.MethodGet, "/find?by_country=Canada", "")
			require.Equal(t, http.StatusOK, w.Code)
			users = decodeUsers(t, w)
			require.Len(t, users, 2)
			assert.Equal(t, "a@x.io", users[0].Email)
			assert.Equal(t, "c@x.io", users[1].Email)

			w = do(t, h, http.MethodGet, "/find?by_country=Chile", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `[]`, w.Body.String())

			w = do(t, h, http.MethodGet, "/find", "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, decodeUsers(t, w), 3)

			w = do(t, h, http.MethodGet, "/find?limit=0", "")
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			w = do(t, h, http.MethodGet, "/find?limit=many", "")
			assert.Equal(t, http.StatusBadRequest, w.Code)

			w = do(t, h, http.MethodPost, "/create/", `{"email":"bad"}`)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestApp_DuplicateEmail(t *testing.T) {
	t.Run("memory overwrites", func(t *testing.T) {
		h := newTestApp(t, testConfig(config.BackendMemory, ""))

		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/create/", userBody("a@x.io", "A", "Canada", "Student")).Code)
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/create/", userBody("a@x.io", "A2", "Peru", "Worker")).Code)

		w := do(t, h, http.MethodGet, "/find", "")
		users := decodeUsers(t, w)
		require.Len(t, users, 1)
		assert.Equal(t, "A2", users[0].Name)
	})

	t.Run("sqlite rejects", func(t *testing.T) {
		h := newTestApp(t, testConfig(config.BackendSQLite, ":memory:"))

		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/create/", userBody("a@x.io", "A", "Canada", "Student")).Code)
		w := do(t, h, http.MethodPost, "/create/", userBody("a@x.io", "A2", "Peru", "Worker"))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"user with this email already exists"}`, w.Body.String())

		w = do(t, h, http.MethodGet, "/user/a@x.io", "")
		assert.JSONEq(t, `{"email":"a@x.io","name":"A","country":"Canada","status":"Student"}`, w.Body.String())
	})
}

func TestApp_MultibytePasswordRejected(t *testing.T) {
	h := newTestApp(t, testConfig(config.BackendMemory, ""))

	b, err := json.Marshal(models.DummyUser{
		Email:    "mb@x.io",
		Password: strings.Repeat("é", 40),
		Name:     "MB",
		Country:  "France",
		Status:   "Student",
	})
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/create/", string(b))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"Error","error":"field Password must be at most 72 bytes long"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/user/mb@x.io", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_ServiceRoutes(t *testing.T) {
	h := newTestApp(t, testConfig(config.BackendMemory, ""))

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/docs/index.html", w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"status":"ok"}}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/docs/doc.json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/user/{email}"`)

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `user_registry_http_requests_total{code="200",method="GET",route="/health"} 1`)
}

func TestApp_RateLimit(t *testing.T) {
	cfg := testConfig(config.BackendMemory, "")
	cfg.RPS = 0.001
	cfg.Burst = 1
	h := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/find", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/find", "").Code)
	// служебные маршруты не ограничиваются
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestNewStore(t *testing.T) {
	_, err := NewStore(context.Background(), config.Storage{Backend: "mongo"})
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)

	_, err = NewStore(context.Background(), config.Storage{Backend: config.BackendSQLite})
	assert.ErrorIs(t, err, storage.ErrEmptyConnectionString)

	_, err = NewStore(context.Background(), config.Storage{Backend: config.BackendPostgres})
	assert.ErrorIs(t, err, storage.ErrEmptyConnectionString)

	s, err := NewStore(context.Background(), config.Storage{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig(config.BackendMemory, "")
	cfg.AddressRedis = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond

	_, err := New(context.Background(), cfg, newNoopLogger())
	assert.Error(t, err)
}

func TestApp_Run(t *testing.T) {
	cfg := testConfig(config.BackendMemory, "")
	cfg.AddressGRPC = "127.0.0.1:0"
	cfg.HealthInterval = 10 * time.Millisecond

	a, err := New(context.Background(), cfg, newNoopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
