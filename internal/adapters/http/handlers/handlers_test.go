package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"investorconnect/internal/adapters/http/handlers"
	"investorconnect/internal/adapters/http/middleware"
	"investorconnect/internal/adapters/http/routes"
	"investorconnect/internal/config"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/core/services"
	"investorconnect/internal/docstore"
	"investorconnect/internal/pkg/jwt"
	"investorconnect/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockIdentityService struct {
	mock.Mock
}

func (m *mockIdentityService) Register(ctx context.Context, input *services.RegisterInput) (*services.AuthResponse, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*services.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityService) Login(ctx context.Context, input *services.LoginInput) (*services.AuthResponse, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*services.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	args := m.Called(ctx, refreshToken)
	if r := args.Get(0); r != nil {
		return r.(*services.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *mockIdentityService) GetAccount(ctx context.Context, uid string) (domain.Identity, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func (m *mockIdentityService) UpdateProfile(ctx context.Context, uid, displayName string) (domain.Identity, error) {
	args := m.Called(ctx, uid, displayName)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func (m *mockIdentityService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	args := m.Called(accessToken)
	if c := args.Get(0); c != nil {
		return c.(*jwt.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type testEnv struct {
	app      *fiber.App
	identity *mockIdentityService
	store    docstore.Store
	cfg      *config.Config
}

func newTestEnv(t *testing.T, indexes string) *testEnv {
	t.Helper()

	set, err := docstore.ParseIndexes(indexes)
	require.NoError(t, err)

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie:   config.CookieConfig{SameSite: "lax"},
		DocStore: config.DocStoreConfig{Driver: docstore.DriverMemory, Indexes: set},
	}

	store := docstore.NewMemory(set)
	identity := &mockIdentityService{}

	app := fiber.New(middleware.AppConfig("test"))
	routes.Register(app, cfg,
		handlers.NewHealthHandler(cfg, map[string]func(ctx context.Context) error{
			"docstore": func(context.Context) error { return nil },
		}),
		handlers.NewAuthHandler(identity, cfg),
		handlers.NewDocumentHandler(services.NewDocumentService(store, zap.NewNop())),
	)

	return &testEnv{app: app, identity: identity, store: store, cfg: cfg}
}

func (e *testEnv) bearer(t *testing.T, uid string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(uid, uid+"@example.com", "Tester", e.cfg.JWT.Secret, 5)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, auth string) (int, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response.Response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, "")

	env.identity.On("Register", mock.Anything, &services.RegisterInput{Email: "a@b.com", Password: "secret1"}).
		Return(&services.AuthResponse{
			User:         domain.Identity{UID: "u1", Email: "a@b.com"},
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresIn:    900,
		}, nil).Once()
	env.identity.On("Register", mock.Anything, &services.RegisterInput{Email: "dup@b.com", Password: "secret1"}).
		Return(nil, services.ErrEmailInUse).Once()
	env.identity.On("Register", mock.Anything, &services.RegisterInput{Email: "weak@b.com", Password: "123"}).
		Return(nil, services.ErrWeakPassword).Once()

	status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", fiber.Map{"email": "a@b.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "access", data["access_token"])
	assert.Equal(t, "u1", data["user"].(map[string]interface{})["uid"])

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/register", fiber.Map{"email": "dup@b.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already in use", body.Error)
	assert.Equal(t, response.CodeAlreadyExists, body.Code)

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/register", fiber.Map{"email": "weak@b.com", "password": "123"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, services.ErrWeakPassword.Error(), body.Error)

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", fiber.Map{"password": "secret1"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	env.identity.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, "")

	env.identity.On("Login", mock.Anything, &services.LoginInput{Email: "a@b.com", Password: "wrong"}).
		Return(nil, services.ErrInvalidCredentials)
	env.identity.On("Login", mock.Anything, &services.LoginInput{Email: "off@b.com", Password: "secret1"}).
		Return(nil, services.ErrAccountDisabled)

	status, body := env.do(t, http.MethodPost, "/api/v1/auth/login", fiber.Map{"email": "a@b.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", body.Error)

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", fiber.Map{"email": "off@b.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t, "")

	env.identity.On("RefreshToken", mock.Anything, "old").
		Return(&services.AuthResponse{AccessToken: "a2", RefreshToken: "r2"}, nil)
	env.identity.On("RefreshToken", mock.Anything, "revoked").
		Return(nil, services.ErrTokenRevoked)
	env.identity.On("Logout", mock.Anything, "r2").Return(nil)

	status, body := env.do(t, http.MethodPost, "/api/v1/auth/refresh", fiber.Map{"refresh_token": "old"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "r2", body.Data.(map[string]interface{})["refresh_token"])

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/refresh", fiber.Map{"refresh_token": "revoked"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/logout", fiber.Map{"refresh_token": "r2"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	// logout without a token still succeeds
	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, status)

	env.identity.AssertExpectations(t)
}

func TestMeAndProfile(t *testing.T) {
	env := newTestEnv(t, "")

	env.identity.On("GetAccount", mock.Anything, "u1").
		Return(domain.Identity{UID: "u1", Email: "u1@example.com", DisplayName: "Old"}, nil)
	env.identity.On("UpdateProfile", mock.Anything, "u1", "New").
		Return(domain.Identity{UID: "u1", Email: "u1@example.com", DisplayName: "New"}, nil)

	status, _ := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, env.bearer(t, "u1"))
	assert.Equal(t, http.StatusOK, status)
	user := body.Data.(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Old", user["display_name"])

	status, body = env.do(t, http.MethodPut, "/api/v1/auth/profile", fiber.Map{"display_name": "New"}, env.bearer(t, "u1"))
	assert.Equal(t, http.StatusOK, status)
	user = body.Data.(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "New", user["display_name"])
}

func TestDocuments_WriteRequiresAuth(t *testing.T) {
	env := newTestEnv(t, "")

	status, body := env.do(t, http.MethodPost, "/api/v1/collections/businessProposals/documents",
		fiber.Map{"data": fiber.Map{"title": "x"}}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.CodeUnauthenticated, body.Code)

	status, _ = env.do(t, http.MethodPut, "/api/v1/collections/users/documents/u1",
		fiber.Map{"data": fiber.Map{"role": "investor"}}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDocuments_RoundTrip(t *testing.T) {
	env := newTestEnv(t, "businessProposals:status,createdAt")
	auth := env.bearer(t, "u1")

	status, body := env.do(t, http.MethodPost, "/api/v1/collections/businessProposals/documents",
		fiber.Map{"data": fiber.Map{"title": "Cafe", "status": "active", "createdAt": "2024-01-01T00:00:00Z"}}, auth)
	require.Equal(t, http.StatusCreated, status)
	id := body.Data.(map[string]interface{})["id"].(string)
	require.NotEmpty(t, id)

	status, _ = env.do(t, http.MethodPost, "/api/v1/collections/businessProposals/documents",
		fiber.Map{"data": fiber.Map{"title": "Draft", "status": "draft", "createdAt": "2024-02-01T00:00:00Z"}}, auth)
	require.Equal(t, http.StatusCreated, status)

	status, body = env.do(t, http.MethodPut, "/api/v1/collections/users/documents/u1",
		fiber.Map{"data": fiber.Map{"role": "investor", "email": "u1@example.com"}}, auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body.Data.(map[string]interface{})["id"])

	status, body = env.do(t, http.MethodGet, "/api/v1/collections/businessProposals/documents/"+id, nil, "")
	assert.Equal(t, http.StatusOK, status)
	doc := body.Data.(map[string]interface{})
	assert.Equal(t, id, doc["id"])
	assert.Equal(t, "Cafe", doc["data"].(map[string]interface{})["title"])

	status, body = env.do(t, http.MethodGet, "/api/v1/collections/businessProposals/documents/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, response.CodeNotFound, body.Code)

	status, body = env.do(t, http.MethodPost, "/api/v1/collections/businessProposals/query", fiber.Map{
		"filters":  []fiber.Map{{"field": "status", "value": "active"}},
		"order_by": fiber.Map{"field": "createdAt", "descending": true},
	}, "")
	require.Equal(t, http.StatusOK, status)
	docs := body.Data.(map[string]interface{})["documents"].([]interface{})
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].(map[string]interface{})["id"])
}

func TestDocuments_LaterWriteKeepsEarlierDocument(t *testing.T) {
	env := newTestEnv(t, "")
	auth := env.bearer(t, "u1")

	status, body := env.do(t, http.MethodPost, "/api/v1/collections/businessProposals/documents",
		fiber.Map{"data": fiber.Map{"title": "Cafe"}}, auth)
	require.Equal(t, http.StatusCreated, status)
	id := body.Data.(map[string]interface{})["id"].(string)

	status, _ = env.do(t, http.MethodPut, "/api/v1/collections/users/documents/u1",
		fiber.Map{"data": fiber.Map{"role": "investor"}}, auth)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/collections/businessProposals/documents/"+id, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Cafe", body.Data.(map[string]interface{})["data"].(map[string]interface{})["title"])

	doc, err := env.store.Get(context.Background(), "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "investor", doc.String("role"))
}

func TestDocuments_QueryNeedsIndex(t *testing.T) {
	env := newTestEnv(t, "")

	status, body := env.do(t, http.MethodPost, "/api/v1/collections/investorProposals/query", fiber.Map{
		"filters":  []fiber.Map{{"field": "status", "value": "active"}},
		"order_by": fiber.Map{"field": "createdAt", "descending": true},
	}, "")
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, response.CodeFailedPrecondition, body.Code)
	assert.Contains(t, body.Error, "investorProposals:status,createdAt")

	// unfiltered query never needs an index
	status, body = env.do(t, http.MethodPost, "/api/v1/collections/investorProposals/query", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body.Data.(map[string]interface{})["documents"])

	status, body = env.do(t, http.MethodPost, "/api/v1/collections/bad-name/query", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, response.CodeInvalidArgument, body.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "healthy", out["checks"].(map[string]interface{})["docstore"])
}
