package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lmercadier/sentinelle/internal/handlers"
	"github.com/lmercadier/sentinelle/internal/models"
)

func TestSecurityCheck_Allowed(t *testing.T) {
	mockSvc := &handlers.MockSecurityService{
		CheckFunc: func(ctx context.Context, req models.CheckRequest) (models.Decision, error) {
			return models.Allow(), nil
		},
	}

	handler := handlers.NewSecurityHandler(mockSvc, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/security/check", handlers.SecurityCheckRequest{
		Email:             "user@example.com",
		DeviceFingerprint: "fp-abc-123",
	})

	w := httptest.NewRecorder()
	handler.Check(w, req)

	var resp models.Decision
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.Allowed)
	assert.Equal(t, "Security check passed", resp.Message)
	assert.Empty(t, resp.Type)
}

func TestSecurityCheck_Denied(t *testing.T) {
	mockSvc := &handlers.MockSecurityService{
		CheckFunc: func(ctx context.Context, req models.CheckRequest) (models.Decision, error) {
			return models.Decision{
				Allowed:           false,
				Message:           "Votre compte est verrouillé pour 90 minutes. Raison: New device detected",
				Type:              models.DenyTypeAccountLocked,
				RetryAfterMinutes: 90,
			}, nil
		},
	}

	handler := handlers.NewSecurityHandler(mockSvc, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/security/check", handlers.SecurityCheckRequest{
		Email:             "user@example.com",
		DeviceFingerprint: "fp-abc-123",
	})

	w := httptest.NewRecorder()
	handler.Check(w, req)

	var resp models.Decision
	handlers.AssertJSONResponse(t, w, 403, &resp)
	assert.False(t, resp.Allowed)
	assert.Equal(t, models.DenyTypeAccountLocked, resp.Type)
	assert.Equal(t, 90, resp.RetryAfterMinutes)
	assert.Contains(t, resp.Message, "90 minutes")
}

func TestSecurityCheck_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body handlers.SecurityCheckRequest
	}{
		{
			name: "missing email",
			body: handlers.SecurityCheckRequest{DeviceFingerprint: "fp-abc-123"},
		},
		{
			name: "missing fingerprint",
			body: handlers.SecurityCheckRequest{Email: "user@example.com"},
		},
		{
			name: "missing both",
			body: handlers.SecurityCheckRequest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockSvc := &handlers.MockSecurityService{
				CheckFunc: func(ctx context.Context, req models.CheckRequest) (models.Decision, error) {
					called = true
					return models.Allow(), nil
				},
			}

			handler := handlers.NewSecurityHandler(mockSvc, nil)
			req := handlers.NewTestRequest(t, "POST", "/api/security/check", tt.body)

			w := httptest.NewRecorder()
			handler.Check(w, req)

			var resp models.Decision
			handlers.AssertJSONResponse(t, w, 400, &resp)
			assert.False(t, resp.Allowed)
			assert.Equal(t, "Email and device fingerprint are required", resp.Message)
			assert.False(t, called, "service should not be called for incomplete requests")
		})
	}
}

func TestSecurityCheck_InvalidBody(t *testing.T) {
	handler := handlers.NewSecurityHandler(&handlers.MockSecurityService{}, nil)

	req := httptest.NewRequest("POST", "/api/security/check", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.Check(w, req)

	var resp models.Decision
	handlers.AssertJSONResponse(t, w, 400, &resp)
	assert.False(t, resp.Allowed)
}

func TestSecurityCheck_InvalidEmail(t *testing.T) {
	handler := handlers.NewSecurityHandler(&handlers.MockSecurityService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/security/check", handlers.SecurityCheckRequest{
		Email:             "not-an-email",
		DeviceFingerprint: "fp-abc-123",
	})

	w := httptest.NewRecorder()
	handler.Check(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestSecurityCheck_ServiceError_GenericResponse(t *testing.T) {
	mockSvc := &handlers.MockSecurityService{
		CheckFunc: func(ctx context.Context, req models.CheckRequest) (models.Decision, error) {
			return models.Decision{}, models.ErrCheckFailed
		},
	}

	handler := handlers.NewSecurityHandler(mockSvc, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/security/check", handlers.SecurityCheckRequest{
		Email:             "user@example.com",
		DeviceFingerprint: "fp-abc-123",
	})

	w := httptest.NewRecorder()
	handler.Check(w, req)

	var resp models.Decision
	handlers.AssertJSONResponse(t, w, 500, &resp)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "Security check failed", resp.Message)
	assert.Empty(t, resp.Type, "internal faults should not leak a deny type")
}

func TestSecurityCheck_ForwardsClientIP(t *testing.T) {
	var captured models.CheckRequest
	mockSvc := &handlers.MockSecurityService{
		CheckFunc: func(ctx context.Context, req models.CheckRequest) (models.Decision, error) {
			captured = req
			return models.Allow(), nil
		},
	}

	handler := handlers.NewSecurityHandler(mockSvc, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/security/check", handlers.SecurityCheckRequest{
		Email:             "user@example.com",
		DeviceFingerprint: "fp-abc-123",
		IsRegister:        true,
	})
	req.RemoteAddr = "203.0.113.10:54321"

	w := httptest.NewRecorder()
	handler.Check(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "203.0.113.10", captured.ClientIP)
	assert.Equal(t, "user@example.com", captured.Identity)
	assert.Equal(t, "fp-abc-123", captured.DeviceFingerprint)
	assert.True(t, captured.IsRegister)
}
