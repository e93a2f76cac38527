package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lmercadier/sentinelle/internal/geo"
	"github.com/lmercadier/sentinelle/internal/models"
	"github.com/lmercadier/sentinelle/internal/reputation"
	pkglogger "github.com/lmercadier/sentinelle/pkg/logger"
)

// User-facing denial messages, kept verbatim from the product copy
const (
	msgIPBlocked      = "Votre adresse IP a été bloquée en raison d'une activité suspecte."
	msgDeviceBlocked  = "Votre appareil a été bloqué en raison d'une activité suspecte."
	msgAccountLocked  = "Votre compte est verrouillé pour %d minutes. Raison: %s"
	msgVPN            = "Veuillez désactiver votre VPN pour utiliser la plateforme. Pour des raisons de sécurité, les VPN ne sont pas autorisés, même légitimes."
	msgThreat         = "Votre adresse IP a été identifiée comme suspecte. Veuillez réessayer plus tard."
	msgLocationChange = "Changement de localisation détecté. Votre compte a été verrouillé pendant 24 heures. Veuillez vérifier votre email."
	msgNewDevice      = "Nouvel appareil détecté. Votre compte a été verrouillé pendant 24 heures. Veuillez vérifier votre email."
)

// HistoryRepository defines the login history operations used by the gate
type HistoryRepository interface {
	Append(ctx context.Context, record *models.LoginRecord) error
	Latest(ctx context.Context, identity string) (*models.LoginRecord, error)
	Replace(ctx context.Context, record *models.LoginRecord) error
	List(ctx context.Context, identity string) ([]*models.LoginRecord, error)
}

// DeviceRepository defines the known-device operations used by the gate
type DeviceRepository interface {
	IsKnown(ctx context.Context, identity, fingerprint string) (bool, error)
	Record(ctx context.Context, identity, fingerprint string) error
	List(ctx context.Context, identity string) ([]string, error)
}

// BlockRepository defines the block registry operations used by the gate
type BlockRepository interface {
	IsBlocked(ctx context.Context, scope, value string) (bool, error)
	Add(ctx context.Context, entry *models.BlockEntry) error
	List(ctx context.Context, scope string) ([]*models.BlockEntry, error)
	Delete(ctx context.Context, id string) error
}

// LockRepository defines the account lock operations used by the gate
type LockRepository interface {
	Current(ctx context.Context, identity string, now time.Time) (*models.AccountLock, error)
	Set(ctx context.Context, lock *models.AccountLock) error
	Delete(ctx context.Context, identity string) error
}

// LockNotifier sends a notification to the account holder when the gate
// locks their account. Delivery is best effort.
type LockNotifier interface {
	SendLockNotification(ctx context.Context, email, reason string, lockedUntil time.Time) error
}

// SecurityConfig holds the gate's policy knobs
type SecurityConfig struct {
	LockDuration   time.Duration // how long violations lock an account
	LocationWindow time.Duration // how recent the previous login must be for the geo check
}

// DefaultSecurityConfig returns the policy as shipped: 24h locks, 24h window
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		LockDuration:   24 * time.Hour,
		LocationWindow: 24 * time.Hour,
	}
}

// SecurityService is the decision engine for login and registration attempts.
// It evaluates the block registry, account locks, IP reputation, geo velocity
// and device history in that order, and mutates security state as a side
// effect of its decisions.
type SecurityService struct {
	history    HistoryRepository
	devices    DeviceRepository
	blocks     BlockRepository
	locks      LockRepository
	classifier reputation.Classifier
	notifier   LockNotifier
	config     SecurityConfig
	logger     *slog.Logger
	audit      *pkglogger.AuditLogger
	perUser    *identityMutex
}

// NewSecurityService creates a new SecurityService. notifier may be nil, in
// which case lock notifications are skipped.
func NewSecurityService(
	history HistoryRepository,
	devices DeviceRepository,
	blocks BlockRepository,
	locks LockRepository,
	classifier reputation.Classifier,
	notifier LockNotifier,
	config SecurityConfig,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *SecurityService {
	return &SecurityService{
		history:    history,
		devices:    devices,
		blocks:     blocks,
		locks:      locks,
		classifier: classifier,
		notifier:   notifier,
		config:     config,
		logger:     logger,
		audit:      audit,
		perUser:    newIdentityMutex(),
	}
}

// NormalizeIdentity canonicalizes the account key: lower-cased and trimmed.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Check evaluates a login or registration attempt and returns a decision.
// Policy rules are evaluated in order and the first match wins. A non-nil
// error means evaluation itself failed; callers must treat that as a denial
// (fail closed), distinct from the policy denials carried in the Decision.
func (s *SecurityService) Check(ctx context.Context, req models.CheckRequest) (decision models.Decision, err error) {
	identity := NormalizeIdentity(req.Identity)

	// Serialize checks per identity so a read-decide-write sequence cannot
	// interleave with another check for the same account.
	unlock := s.perUser.Lock(identity)
	defer unlock()

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("panic during security check",
				slog.String("email", pkglogger.SanitizedEmail(identity)),
				slog.Any("panic", p))
			decision = models.Decision{}
			err = models.ErrCheckFailed
		}
	}()

	now := time.Now()

	// 1. Permanent IP block
	blocked, err := s.blocks.IsBlocked(ctx, models.BlockScopeIP, req.ClientIP)
	if err != nil {
		return models.Decision{}, fmt.Errorf("ip block lookup: %w", err)
	}
	if blocked {
		return s.deny(identity, req, models.Deny(models.DenyTypeIPBlocked, msgIPBlocked)), nil
	}

	// 2. Permanent device block
	blocked, err = s.blocks.IsBlocked(ctx, models.BlockScopeDevice, req.DeviceFingerprint)
	if err != nil {
		return models.Decision{}, fmt.Errorf("device block lookup: %w", err)
	}
	if blocked {
		return s.deny(identity, req, models.Deny(models.DenyTypeDeviceBlocked, msgDeviceBlocked)), nil
	}

	// 3. Active account lock. The existing lock is not extended.
	lock, err := s.locks.Current(ctx, identity, now)
	if err != nil {
		return models.Decision{}, fmt.Errorf("lock lookup: %w", err)
	}
	if lock != nil {
		minutes := lock.RemainingMinutes(now)
		d := models.Deny(models.DenyTypeAccountLocked, fmt.Sprintf(msgAccountLocked, minutes, lock.Reason))
		d.RetryAfterMinutes = minutes
		return s.deny(identity, req, d), nil
	}

	// 4. IP reputation. The classifier degrades to neutral on failure, so an
	// outage here is fail-open for this check only.
	rep := s.classifier.Classify(ctx, req.ClientIP)

	// 5. VPN or proxy: lock the account and flag the IP. The block entry is
	// recorded non-permanent, so it is audit-only.
	if rep.IsVPN || rep.Proxy {
		if err := s.setLock(ctx, identity, models.LockReasonVPN, now); err != nil {
			return models.Decision{}, err
		}
		if err := s.blocks.Add(ctx, &models.BlockEntry{
			Scope:     models.BlockScopeIP,
			Value:     req.ClientIP,
			Reason:    models.LockReasonVPN,
			Permanent: false,
		}); err != nil {
			return models.Decision{}, fmt.Errorf("recording vpn block entry: %w", err)
		}
		return s.deny(identity, req, models.Deny(models.DenyTypeVPN, msgVPN)), nil
	}

	// 6. Threat-level IP: lock only, no block entry
	if rep.Threat {
		if err := s.setLock(ctx, identity, models.LockReasonThreat, now); err != nil {
			return models.Decision{}, err
		}
		return s.deny(identity, req, models.Deny(models.DenyTypeThreat, msgThreat)), nil
	}

	if req.IsRegister {
		return s.register(ctx, identity, req, rep, now)
	}

	return s.login(ctx, identity, req, rep, now)
}

// login handles the non-register path: geo velocity, device policy, then
// history append.
func (s *SecurityService) login(ctx context.Context, identity string, req models.CheckRequest, rep reputation.Classification, now time.Time) (models.Decision, error) {
	last, err := s.history.Latest(ctx, identity)
	if err != nil {
		return models.Decision{}, fmt.Errorf("history lookup: %w", err)
	}

	if last != nil {
		// 7b. Country changed within the window: allowed only between
		// adjacent countries.
		if last.CountryCode != rep.CountryCode && now.Sub(last.Timestamp) < s.config.LocationWindow {
			if !geo.AreAdjacent(last.CountryCode, rep.CountryCode) {
				if err := s.setLock(ctx, identity, models.LockReasonLocationChange, now); err != nil {
					return models.Decision{}, err
				}
				return s.deny(identity, req, models.Deny(models.DenyTypeLocationChange, msgLocationChange)), nil
			}
		}

		// 7c. Fingerprint differs from the previous login. A fingerprint seen
		// before for this identity is fine (multi-device users alternating
		// between registered devices); an unseen one locks the account, but
		// only once the identity has device history at all.
		if last.DeviceFingerprint != req.DeviceFingerprint {
			known, err := s.devices.IsKnown(ctx, identity, req.DeviceFingerprint)
			if err != nil {
				return models.Decision{}, fmt.Errorf("device lookup: %w", err)
			}
			if !known {
				registered, err := s.devices.List(ctx, identity)
				if err != nil {
					return models.Decision{}, fmt.Errorf("device list: %w", err)
				}
				if len(registered) > 0 {
					if err := s.setLock(ctx, identity, models.LockReasonNewDevice, now); err != nil {
						return models.Decision{}, err
					}
					return s.deny(identity, req, models.Deny(models.DenyTypeNewDevice, msgNewDevice)), nil
				}
			}
		}
	}

	// 7d. Passed: append to the audit trail
	if err := s.history.Append(ctx, &models.LoginRecord{
		Identity:          identity,
		DeviceFingerprint: req.DeviceFingerprint,
		IPAddress:         req.ClientIP,
		CountryCode:       rep.CountryCode,
		IsVPN:             false,
		Timestamp:         now,
		Locked:            false,
	}); err != nil {
		return models.Decision{}, fmt.Errorf("history append: %w", err)
	}

	return s.allow(identity, req), nil
}

// register seeds the identity's first device and resets its history to a
// single fresh record, so the first login after registration has no prior
// record to compare against.
func (s *SecurityService) register(ctx context.Context, identity string, req models.CheckRequest, rep reputation.Classification, now time.Time) (models.Decision, error) {
	if err := s.devices.Record(ctx, identity, req.DeviceFingerprint); err != nil {
		return models.Decision{}, fmt.Errorf("device record: %w", err)
	}

	if err := s.history.Replace(ctx, &models.LoginRecord{
		Identity:          identity,
		DeviceFingerprint: req.DeviceFingerprint,
		IPAddress:         req.ClientIP,
		CountryCode:       rep.CountryCode,
		IsVPN:             false,
		Timestamp:         now,
		Locked:            false,
	}); err != nil {
		return models.Decision{}, fmt.Errorf("history replace: %w", err)
	}

	return s.allow(identity, req), nil
}

// setLock overwrites the identity's lock and fires the best-effort
// notification email.
func (s *SecurityService) setLock(ctx context.Context, identity, reason string, now time.Time) error {
	lockedUntil := now.Add(s.config.LockDuration)

	if err := s.locks.Set(ctx, &models.AccountLock{
		Identity:    identity,
		LockedUntil: lockedUntil,
		Reason:      reason,
	}); err != nil {
		return fmt.Errorf("setting account lock: %w", err)
	}

	if s.notifier != nil {
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := s.notifier.SendLockNotification(notifyCtx, identity, reason, lockedUntil); err != nil {
				s.logger.Error("failed to send lock notification",
					slog.String("email", pkglogger.SanitizedEmail(identity)),
					slog.Any("error", err))
			}
		}()
	}

	return nil
}

func (s *SecurityService) allow(identity string, req models.CheckRequest) models.Decision {
	s.audit.LogSecurityDecision(pkglogger.SecurityEvent{
		Identity:          identity,
		IPAddress:         req.ClientIP,
		DeviceFingerprint: req.DeviceFingerprint,
		IsRegister:        req.IsRegister,
		Allowed:           true,
	})
	return models.Allow()
}

func (s *SecurityService) deny(identity string, req models.CheckRequest, d models.Decision) models.Decision {
	s.audit.LogSecurityDecision(pkglogger.SecurityEvent{
		Identity:          identity,
		IPAddress:         req.ClientIP,
		DeviceFingerprint: req.DeviceFingerprint,
		IsRegister:        req.IsRegister,
		Allowed:           false,
		DenyType:          d.Type,
	})
	return d
}

// Administrative operations, exposed through the admin API

// ListBlocks returns all block entries for a scope
func (s *SecurityService) ListBlocks(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
	return s.blocks.List(ctx, scope)
}

// AddBlock records an administrator-created block entry
func (s *SecurityService) AddBlock(ctx context.Context, scope, value, reason string, permanent bool) (*models.BlockEntry, error) {
	entry := &models.BlockEntry{
		Scope:     scope,
		Value:     value,
		Reason:    reason,
		Permanent: permanent,
	}
	if err := s.blocks.Add(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveBlock deletes a block entry by ID
func (s *SecurityService) RemoveBlock(ctx context.Context, id string) error {
	return s.blocks.Delete(ctx, id)
}

// UnlockAccount clears an identity's lock ahead of its natural expiry
func (s *SecurityService) UnlockAccount(ctx context.Context, identity string) error {
	identity = NormalizeIdentity(identity)

	unlock := s.perUser.Lock(identity)
	defer unlock()

	return s.locks.Delete(ctx, identity)
}

// IdentityOverview is the admin view of one identity's security state
type IdentityOverview struct {
	Identity string                `json:"identity"`
	History  []*models.LoginRecord `json:"history"`
	Devices  []string              `json:"devices"`
	Lock     *models.AccountLock   `json:"lock,omitempty"`
}

// GetIdentityOverview returns an identity's history, devices and active lock
func (s *SecurityService) GetIdentityOverview(ctx context.Context, identity string) (*IdentityOverview, error) {
	identity = NormalizeIdentity(identity)

	history, err := s.history.List(ctx, identity)
	if err != nil {
		return nil, err
	}

	devices, err := s.devices.List(ctx, identity)
	if err != nil {
		return nil, err
	}

	lock, err := s.locks.Current(ctx, identity, time.Now())
	if err != nil {
		return nil, err
	}

	return &IdentityOverview{
		Identity: identity,
		History:  history,
		Devices:  devices,
		Lock:     lock,
	}, nil
}
