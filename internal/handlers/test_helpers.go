package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lmercadier/sentinelle/internal/models"
	"github.com/lmercadier/sentinelle/internal/services"
	pkghttp "github.com/lmercadier/sentinelle/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockSecurityService implements SecurityServiceInterface for testing
type MockSecurityService struct {
	CheckFunc func(ctx context.Context, req models.CheckRequest) (models.Decision, error)
}

func (m *MockSecurityService) Check(ctx context.Context, req models.CheckRequest) (models.Decision, error) {
	if m.CheckFunc == nil {
		return models.Allow(), nil
	}
	return m.CheckFunc(ctx, req)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListBlocksFunc          func(ctx context.Context, scope string) ([]*models.BlockEntry, error)
	AddBlockFunc            func(ctx context.Context, scope, value, reason string, permanent bool) (*models.BlockEntry, error)
	RemoveBlockFunc         func(ctx context.Context, id string) error
	UnlockAccountFunc       func(ctx context.Context, identity string) error
	GetIdentityOverviewFunc func(ctx context.Context, identity string) (*services.IdentityOverview, error)
}

func (m *MockAdminService) ListBlocks(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
	if m.ListBlocksFunc == nil {
		return nil, nil
	}
	return m.ListBlocksFunc(ctx, scope)
}

func (m *MockAdminService) AddBlock(ctx context.Context, scope, value, reason string, permanent bool) (*models.BlockEntry, error) {
	if m.AddBlockFunc == nil {
		return &models.BlockEntry{Scope: scope, Value: value, Reason: reason, Permanent: permanent}, nil
	}
	return m.AddBlockFunc(ctx, scope, value, reason, permanent)
}

func (m *MockAdminService) RemoveBlock(ctx context.Context, id string) error {
	if m.RemoveBlockFunc == nil {
		return nil
	}
	return m.RemoveBlockFunc(ctx, id)
}

func (m *MockAdminService) UnlockAccount(ctx context.Context, identity string) error {
	if m.UnlockAccountFunc == nil {
		return nil
	}
	return m.UnlockAccountFunc(ctx, identity)
}

func (m *MockAdminService) GetIdentityOverview(ctx context.Context, identity string) (*services.IdentityOverview, error) {
	if m.GetIdentityOverviewFunc == nil {
		return &services.IdentityOverview{Identity: identity}, nil
	}
	return m.GetIdentityOverviewFunc(ctx, identity)
}

// StubTokenIssuer returns a fixed token
type StubTokenIssuer struct {
	Token string
	Err   error
}

func (s *StubTokenIssuer) GenerateAdminToken(email string) (string, error) {
	return s.Token, s.Err
}
