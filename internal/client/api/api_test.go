package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"investorconnect/internal/adapters/http/handlers"
	"investorconnect/internal/adapters/http/middleware"
	"investorconnect/internal/adapters/http/routes"
	"investorconnect/internal/client/api"
	"investorconnect/internal/config"
	"investorconnect/internal/core/services"
	"investorconnect/internal/docstore"
	"investorconnect/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fiberTransport sends client requests straight into a Fiber app
type fiberTransport struct {
	app *fiber.App
}

func (t fiberTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.app.Test(req, -1)
}

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func newBackend(t *testing.T, indexes string) (*api.Client, *config.Config) {
	t.Helper()

	set, err := docstore.ParseIndexes(indexes)
	require.NoError(t, err)
	cfg := &config.Config{
		AppMode:  "dev",
		JWT:      config.JWTConfig{Secret: "access-secret", AccessTokenMins: 5},
		DocStore: config.DocStoreConfig{Driver: docstore.DriverMemory, Indexes: set},
	}

	app := fiber.New(middleware.AppConfig("test"))
	routes.Register(app, cfg,
		handlers.NewHealthHandler(cfg, nil),
		handlers.NewAuthHandler(nil, cfg),
		handlers.NewDocumentHandler(services.NewDocumentService(docstore.NewMemory(set), zap.NewNop())),
	)

	return api.NewWithHTTPClient("http://backend/api/v1", &http.Client{Transport: fiberTransport{app: app}}), cfg
}

func signedIn(t *testing.T, cfg *config.Config, uid string) staticToken {
	t.Helper()
	token, err := jwt.GenerateAccessToken(uid, uid+"@example.com", "Tester", cfg.JWT.Secret, 5)
	require.NoError(t, err)
	return staticToken(token)
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	client, cfg := newBackend(t, "businessProposals:status,createdAt")
	store := api.NewDocumentStore(client, signedIn(t, cfg, "u1"))
	ctx := context.Background()

	id, err := store.Add(ctx, "businessProposals", map[string]interface{}{
		"title": "Cafe", "status": "active", "createdAt": "2024-01-01T00:00:00Z", "investmentAmount": 5000,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = store.Add(ctx, "businessProposals", map[string]interface{}{
		"title": "Draft", "status": "draft", "createdAt": "2024-02-01T00:00:00Z",
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "businessProposals", id)
	require.NoError(t, err)
	assert.Equal(t, "Cafe", doc.String("title"))
	assert.Equal(t, 5000.0, doc.Data["investmentAmount"])

	docs, err := store.Query(ctx, docstore.Collection("businessProposals").
		Where("status", "active").OrderedBy("createdAt", true))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	require.NoError(t, store.Set(ctx, "users", "u1", map[string]interface{}{"role": "investor"}))
	profile, err := store.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "investor", profile.String("role"))
}

func TestDocumentStore_Errors(t *testing.T) {
	client, _ := newBackend(t, "")
	store := api.NewDocumentStore(client, nil)
	ctx := context.Background()

	_, err := store.Get(ctx, "businessProposals", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = store.Query(ctx, docstore.Collection("loanDetails").Where("status", "active").OrderedBy("createdAt", true))
	require.Error(t, err)
	assert.ErrorIs(t, err, docstore.ErrIndexRequired)
	assert.Contains(t, err.Error(), "loanDetails:status,createdAt")

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPreconditionFailed, apiErr.Status)
	assert.Equal(t, "failed-precondition", apiErr.Code)

	// writes without a token are rejected by the server
	_, err = store.Add(ctx, "loanDetails", map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, api.ErrUnauthenticated)

	// malformed names never leave the process
	_, err = store.Query(ctx, docstore.Collection("bad name"))
	assert.ErrorIs(t, err, docstore.ErrInvalidQuery)
}

func TestErrorIs(t *testing.T) {
	tests := []struct {
		err    *api.Error
		target error
	}{
		{&api.Error{Status: http.StatusNotFound}, docstore.ErrNotFound},
		{&api.Error{Status: http.StatusPreconditionFailed}, docstore.ErrIndexRequired},
		{&api.Error{Status: http.StatusUnauthorized}, api.ErrUnauthenticated},
		{&api.Error{Status: http.StatusConflict}, api.ErrAlreadyExists},
		{&api.Error{Status: http.StatusForbidden}, api.ErrPermissionDenied},
		{&api.Error{Status: http.StatusBadRequest}, api.ErrInvalidArgument},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.target)
	}
	assert.NotErrorIs(t, &api.Error{Status: http.StatusInternalServerError}, docstore.ErrNotFound)
	assert.Equal(t, "boom", (&api.Error{Status: 500, Message: "boom"}).Error())
}
