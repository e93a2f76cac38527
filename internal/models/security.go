package models

import "time"

// Block scopes
const (
	BlockScopeIP     = "ip"
	BlockScopeDevice = "device"
)

// Deny types surfaced to the caller on a refused security check
const (
	DenyTypeIPBlocked      = "ip_blocked"
	DenyTypeDeviceBlocked  = "device_blocked"
	DenyTypeAccountLocked  = "account_locked"
	DenyTypeVPN            = "vpn"
	DenyTypeThreat         = "threat"
	DenyTypeLocationChange = "location_change"
	DenyTypeNewDevice      = "new_device"
)

// Lock reasons recorded by the gate
const (
	LockReasonVPN            = "VPN/Proxy detected"
	LockReasonThreat         = "Suspicious IP detected"
	LockReasonLocationChange = "Suspicious location change"
	LockReasonNewDevice      = "New device detected"
)

// LoginRecord is one entry in an identity's security history.
// Records are append-only: never mutated or deleted once written.
type LoginRecord struct {
	ID                string    `db:"id" json:"id"`
	Identity          string    `db:"identity" json:"identity"`
	DeviceFingerprint string    `db:"device_fingerprint" json:"device_fingerprint"`
	IPAddress         string    `db:"ip_address" json:"ip_address"`
	CountryCode       string    `db:"country_code" json:"country_code"`
	IsVPN             bool      `db:"is_vpn" json:"is_vpn"`
	Timestamp         time.Time `db:"attempt_time" json:"timestamp"`
	Locked            bool      `db:"locked" json:"locked"`
}

// BlockEntry marks an IP or device fingerprint as blocked.
// A value is enforced as blocked only when a matching entry has Permanent set;
// non-permanent entries are recorded for audit but not enforced.
type BlockEntry struct {
	ID        string    `db:"id" json:"id"`
	Scope     string    `db:"scope" json:"scope"`
	Value     string    `db:"value" json:"value"`
	Reason    string    `db:"reason" json:"reason"`
	Permanent bool      `db:"permanent" json:"permanent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AccountLock is a time-bound lock on an identity. At most one lock is active
// per identity; setting a new lock overwrites any existing one.
type AccountLock struct {
	Identity    string    `db:"identity" json:"identity"`
	LockedUntil time.Time `db:"locked_until" json:"locked_until"`
	Reason      string    `db:"reason" json:"reason"`
}

// InEffect reports whether the lock is active at the given evaluation time.
func (l *AccountLock) InEffect(now time.Time) bool {
	return l.LockedUntil.After(now)
}

// RemainingMinutes returns the remaining lock duration in whole minutes,
// rounded up.
func (l *AccountLock) RemainingMinutes(now time.Time) int {
	remaining := l.LockedUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}

// CheckRequest carries the inputs of a single security check.
type CheckRequest struct {
	Identity          string
	DeviceFingerprint string
	ClientIP          string
	IsRegister        bool
}

// Decision is the outcome of a security check. Type is empty when Allowed is
// true, otherwise one of the DenyType constants.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	Message           string `json:"message"`
	Type              string `json:"type,omitempty"`
	RetryAfterMinutes int    `json:"retry_after_minutes,omitempty"`
}

// Allow returns the standard pass-through decision.
func Allow() Decision {
	return Decision{Allowed: true, Message: "Security check passed"}
}

// Deny returns a policy denial with the given type and user-facing message.
func Deny(denyType, message string) Decision {
	return Decision{Allowed: false, Type: denyType, Message: message}
}
