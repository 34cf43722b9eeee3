package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/auth/jwt"
	"github.com/gokatarajesh/mentors-mantra/internal/config"
	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
	"github.com/gokatarajesh/mentors-mantra/internal/db/repository"
)

type stubUsers map[string]queries.User

func (s stubUsers) Create(_ context.Context, p queries.CreateUserParams) (queries.User, error) {
	return queries.User(p), nil
}

func (s stubUsers) GetByUsername(_ context.Context, username string) (queries.User, error) {
	for _, u := range s {
		if u.Username == username {
			return u, nil
		}
	}
	return queries.User{}, repository.ErrNotFound
}

func (s stubUsers) GetByID(_ context.Context, id string) (queries.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return queries.User{}, repository.ErrNotFound
}

func testConfig() *config.App {
	return &config.App{
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
	}
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), Handlers{}, []Check{
		{Name: "database", Ping: func(context.Context) error { return nil }},
		{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "ok", report["database"])
	assert.Equal(t, "unavailable", report["redis"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	users := stubUsers{"s1": {ID: "s1", Username: "asha", Email: "asha@example.com"}}
	authSvc := auth.NewService(users, auth.ServiceOptions{TokenConfig: jwt.TokenConfig{Secret: []byte("secret")}}, zerolog.Nop())
	router := NewRouter(testConfig(), zerolog.Nop(), Handlers{
		AuthSvc: authSvc,
		Auth:    auth.NewHTTPHandlers(authSvc, validator.New(), zerolog.Nop()),
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewManager(jwt.TokenConfig{Secret: []byte("secret")}).GenerateAccessToken(jwt.Subject{StudentID: "s1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me auth.Student
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "asha", me.Username)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), Handlers{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
