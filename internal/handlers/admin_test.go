package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercadier/sentinelle/internal/handlers"
	"github.com/lmercadier/sentinelle/internal/models"
	"github.com/lmercadier/sentinelle/internal/services"
	pkgauth "github.com/lmercadier/sentinelle/pkg/auth"
	pkglogger "github.com/lmercadier/sentinelle/pkg/logger"
)

func newAdminHandler(t *testing.T, svc handlers.AdminServiceInterface) *handlers.AdminHandler {
	t.Helper()
	hash, err := pkgauth.HashPassword("Adm1n#Sentinelle")
	require.NoError(t, err)
	audit := pkglogger.NewAuditLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return handlers.NewAdminHandler(svc, &handlers.StubTokenIssuer{Token: "admin-token-123"}, handlers.AdminCredential{
		Email:        "admin@example.com",
		PasswordHash: hash,
	}, audit)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminLogin_Success(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{})
	req := handlers.NewTestRequest(t, "POST", "/api/admin/login", handlers.AdminLoginRequest{
		Email:    "Admin@Example.com",
		Password: "Adm1n#Sentinelle",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.AdminLoginResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "admin-token-123", resp.Token)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{})
	req := handlers.NewTestRequest(t, "POST", "/api/admin/login", handlers.AdminLoginRequest{
		Email:    "admin@example.com",
		Password: "wrong-password",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestAdminLogin_WrongEmail(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{})
	req := handlers.NewTestRequest(t, "POST", "/api/admin/login", handlers.AdminLoginRequest{
		Email:    "intruder@example.com",
		Password: "Adm1n#Sentinelle",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestAdminLogin_MissingFields(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{})
	req := handlers.NewTestRequest(t, "POST", "/api/admin/login", handlers.AdminLoginRequest{
		Email: "admin@example.com",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestListBlocks_Success(t *testing.T) {
	mockSvc := &handlers.MockAdminService{
		ListBlocksFunc: func(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
			assert.Equal(t, models.BlockScopeIP, scope)
			return []*models.BlockEntry{
				{ID: "b1", Scope: models.BlockScopeIP, Value: "203.0.113.8", Permanent: true},
			}, nil
		},
	}

	handler := newAdminHandler(t, mockSvc)
	req := handlers.NewTestRequest(t, "GET", "/api/admin/security/blocks?scope=ip", nil)

	w := httptest.NewRecorder()
	handler.ListBlocks(w, req)

	var entries []*models.BlockEntry
	handlers.AssertJSONResponse(t, w, 200, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "203.0.113.8", entries[0].Value)
}

func TestListBlocks_EmptyScope(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{})
	req := handlers.NewTestRequest(t, "GET", "/api/admin/security/blocks", nil)

	w := httptest.NewRecorder()
	handler.ListBlocks(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestListBlocks_NoEntries_ReturnsEmptyArray(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{
		ListBlocksFunc: func(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
			return nil, nil
		},
	})
	req := handlers.NewTestRequest(t, "GET", "/api/admin/security/blocks?scope=device", nil)

	w := httptest.NewRecorder()
	handler.ListBlocks(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestAddBlock_Success(t *testing.T) {
	mockSvc := &handlers.MockAdminService{
		AddBlockFunc: func(ctx context.Context, scope, value, reason string, permanent bool) (*models.BlockEntry, error) {
			return &models.BlockEntry{
				ID:        "b2",
				Scope:     scope,
				Value:     value,
				Reason:    reason,
				Permanent: permanent,
			}, nil
		},
	}

	handler := newAdminHandler(t, mockSvc)
	req := handlers.NewTestRequest(t, "POST", "/api/admin/security/blocks", handlers.AddBlockRequest{
		Scope:     models.BlockScopeDevice,
		Value:     "fp-suspicious",
		Reason:    "manual review",
		Permanent: true,
	})

	w := httptest.NewRecorder()
	handler.AddBlock(w, req)

	var entry models.BlockEntry
	handlers.AssertJSONResponse(t, w, 201, &entry)
	assert.Equal(t, "b2", entry.ID)
	assert.Equal(t, models.BlockScopeDevice, entry.Scope)
	assert.True(t, entry.Permanent)
}

func TestAddBlock_InvalidScope(t *testing.T) {
	handler := newAdminHandler(t, &handlers.MockAdminService{})
	req := handlers.NewTestRequest(t, "POST", "/api/admin/security/blocks", handlers.AddBlockRequest{
		Scope: "country",
		Value: "FR",
	})

	w := httptest.NewRecorder()
	handler.AddBlock(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestRemoveBlock_Success(t *testing.T) {
	var removed string
	mockSvc := &handlers.MockAdminService{
		RemoveBlockFunc: func(ctx context.Context, id string) error {
			removed = id
			return nil
		},
	}

	handler := newAdminHandler(t, mockSvc)
	req := handlers.NewTestRequest(t, "DELETE", "/api/admin/security/blocks/b1", nil)
	req = withURLParam(req, "id", "b1")

	w := httptest.NewRecorder()
	handler.RemoveBlock(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "b1", removed)
}

func TestRemoveBlock_NotFound(t *testing.T) {
	mockSvc := &handlers.MockAdminService{
		RemoveBlockFunc: func(ctx context.Context, id string) error {
			return models.ErrNotFound
		},
	}

	handler := newAdminHandler(t, mockSvc)
	req := handlers.NewTestRequest(t, "DELETE", "/api/admin/security/blocks/missing", nil)
	req = withURLParam(req, "id", "missing")

	w := httptest.NewRecorder()
	handler.RemoveBlock(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestUnlockAccount_Success(t *testing.T) {
	var unlocked string
	mockSvc := &handlers.MockAdminService{
		UnlockAccountFunc: func(ctx context.Context, identity string) error {
			unlocked = identity
			return nil
		},
	}

	handler := newAdminHandler(t, mockSvc)
	req := handlers.NewTestRequest(t, "POST", "/api/admin/security/unlock", handlers.UnlockRequest{
		Email: "user@example.com",
	})

	w := httptest.NewRecorder()
	handler.UnlockAccount(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "user@example.com", unlocked)
}

func TestGetIdentityOverview_Success(t *testing.T) {
	mockSvc := &handlers.MockAdminService{
		GetIdentityOverviewFunc: func(ctx context.Context, identity string) (*services.IdentityOverview, error) {
			return &services.IdentityOverview{
				Identity: identity,
				Devices:  []string{"fp-1", "fp-2"},
			}, nil
		},
	}

	handler := newAdminHandler(t, mockSvc)
	req := handlers.NewTestRequest(t, "GET", "/api/admin/security/identities/user@example.com", nil)
	req = withURLParam(req, "identity", "user@example.com")

	w := httptest.NewRecorder()
	handler.GetIdentityOverview(w, req)

	var overview services.IdentityOverview
	handlers.AssertJSONResponse(t, w, 200, &overview)
	assert.Equal(t, "user@example.com", overview.Identity)
	assert.Len(t, overview.Devices, 2)
}
