package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lmercadier/sentinelle/internal/models"
	pkghttp "github.com/lmercadier/sentinelle/pkg/http"
)

// SecurityServiceInterface defines the interface for the security gate
type SecurityServiceInterface interface {
	Check(ctx context.Context, req models.CheckRequest) (models.Decision, error)
}

// SecurityHandler handles security check HTTP requests
type SecurityHandler struct {
	service  SecurityServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewSecurityHandler creates a new SecurityHandler
func NewSecurityHandler(service SecurityServiceInterface, ipConfig *pkghttp.IPConfig) *SecurityHandler {
	return &SecurityHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// SecurityCheckRequest represents the request body for a security check
type SecurityCheckRequest struct {
	Email             string `json:"email" validate:"required,email"`
	DeviceFingerprint string `json:"deviceFingerprint" validate:"required"`
	IsRegister        bool   `json:"isRegister"`
}

// Check handles POST /api/security/check
//
// The response body always carries {allowed, message}; denials add a type
// and, for account locks, the remaining minutes. Internal faults return a
// generic 500 body so callers cannot distinguish them from a working gate.
func (h *SecurityHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req SecurityCheckRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteJSON(w, http.StatusBadRequest, models.Decision{
			Allowed: false,
			Message: "Email and device fingerprint are required",
		})
		return
	}

	if req.Email == "" || req.DeviceFingerprint == "" {
		pkghttp.WriteJSON(w, http.StatusBadRequest, models.Decision{
			Allowed: false,
			Message: "Email and device fingerprint are required",
		})
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteJSON(w, http.StatusBadRequest, models.Decision{
			Allowed: false,
			Message: err.Error(),
		})
		return
	}

	decision, err := h.service.Check(r.Context(), models.CheckRequest{
		Identity:          req.Email,
		DeviceFingerprint: req.DeviceFingerprint,
		ClientIP:          pkghttp.ExtractClientIP(r, h.ipConfig),
		IsRegister:        req.IsRegister,
	})
	if err != nil {
		pkghttp.WriteJSON(w, http.StatusInternalServerError, models.Decision{
			Allowed: false,
			Message: "Security check failed",
		})
		return
	}

	if !decision.Allowed {
		pkghttp.WriteJSON(w, http.StatusForbidden, decision)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, decision)
}
