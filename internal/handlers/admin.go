package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lmercadier/sentinelle/internal/auth"
	"github.com/lmercadier/sentinelle/internal/models"
	"github.com/lmercadier/sentinelle/internal/services"
	pkgauth "github.com/lmercadier/sentinelle/pkg/auth"
	pkghttp "github.com/lmercadier/sentinelle/pkg/http"
	pkglogger "github.com/lmercadier/sentinelle/pkg/logger"
)

// AdminServiceInterface defines the interface for admin security operations
type AdminServiceInterface interface {
	ListBlocks(ctx context.Context, scope string) ([]*models.BlockEntry, error)
	AddBlock(ctx context.Context, scope, value, reason string, permanent bool) (*models.BlockEntry, error)
	RemoveBlock(ctx context.Context, id string) error
	UnlockAccount(ctx context.Context, identity string) error
	GetIdentityOverview(ctx context.Context, identity string) (*services.IdentityOverview, error)
}

// TokenIssuer mints admin session tokens
type TokenIssuer interface {
	GenerateAdminToken(email string) (string, error)
}

// AdminCredential is the bootstrap admin login, held as a bcrypt hash
type AdminCredential struct {
	Email        string
	PasswordHash string
}

// AdminHandler handles admin HTTP requests
type AdminHandler struct {
	service    AdminServiceInterface
	tokens     TokenIssuer
	credential AdminCredential
	audit      *pkglogger.AuditLogger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface, tokens TokenIssuer, credential AdminCredential, audit *pkglogger.AuditLogger) *AdminHandler {
	return &AdminHandler{
		service:    service,
		tokens:     tokens,
		credential: credential,
		audit:      audit,
	}
}

// actorEmail returns the admin email from the request's token claims
func (h *AdminHandler) actorEmail(r *http.Request) string {
	if claims, ok := auth.AdminFromContext(r.Context()); ok {
		return claims.Email
	}
	return ""
}

// Request DTOs

// AdminLoginRequest represents the request body for admin login
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse carries the issued admin token
type AdminLoginResponse struct {
	Token string `json:"token"`
}

// AddBlockRequest represents the request body for creating a block entry
type AddBlockRequest struct {
	Scope     string `json:"scope" validate:"required,oneof=ip device"`
	Value     string `json:"value" validate:"required"`
	Reason    string `json:"reason"`
	Permanent bool   `json:"permanent"`
}

// UnlockRequest represents the request body for unlocking an account
type UnlockRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Compare even on email mismatch to keep timing uniform
	err := pkgauth.ComparePassword(h.credential.PasswordHash, req.Password)
	if email != strings.ToLower(h.credential.Email) || err != nil {
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	token, err := h.tokens.GenerateAdminToken(email)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, AdminLoginResponse{Token: token})
}

// ListBlocks handles GET /api/admin/security/blocks?scope=ip|device
func (h *AdminHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope != models.BlockScopeIP && scope != models.BlockScopeDevice {
		pkghttp.WriteBadRequest(w, "scope must be one of: ip, device")
		return
	}

	entries, err := h.service.ListBlocks(r.Context(), scope)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list block entries")
		return
	}

	if entries == nil {
		entries = []*models.BlockEntry{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, entries)
}

// AddBlock handles POST /api/admin/security/blocks
func (h *AdminHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	var req AddBlockRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	entry, err := h.service.AddBlock(r.Context(), req.Scope, req.Value, req.Reason, req.Permanent)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to create block entry")
		return
	}

	h.audit.LogAdminAction("block_added", h.actorEmail(r), entry.Value, map[string]string{
		"scope":    entry.Scope,
		"block_id": entry.ID,
	})
	pkghttp.WriteJSON(w, http.StatusCreated, entry)
}

// RemoveBlock handles DELETE /api/admin/security/blocks/{id}
func (h *AdminHandler) RemoveBlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Block entry ID is required")
		return
	}

	if err := h.service.RemoveBlock(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Block entry not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to remove block entry")
		return
	}

	h.audit.LogAdminAction("block_removed", h.actorEmail(r), id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// UnlockAccount handles POST /api/admin/security/unlock
func (h *AdminHandler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.UnlockAccount(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Failed to unlock account")
		return
	}

	h.audit.LogAdminAction("account_unlocked", h.actorEmail(r), req.Email, nil)
	w.WriteHeader(http.StatusNoContent)
}

// GetIdentityOverview handles GET /api/admin/security/identities/{identity}
func (h *AdminHandler) GetIdentityOverview(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" {
		pkghttp.WriteBadRequest(w, "Identity is required")
		return
	}

	overview, err := h.service.GetIdentityOverview(r.Context(), identity)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve identity overview")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, overview)
}
