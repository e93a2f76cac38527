package logger

import (
	"context"
	"log/slog"
	"time"
)

// SecurityEvent represents the outcome of one security check
type SecurityEvent struct {
	Identity          string
	IPAddress         string
	DeviceFingerprint string
	IsRegister        bool
	Allowed           bool
	DenyType          string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogSecurityDecision logs the outcome of a security check. Allowed checks
// log at info, denials at warn.
func (al *AuditLogger) LogSecurityDecision(event SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security_check"),
		slog.Bool("allowed", event.Allowed),
		slog.Bool("is_register", event.IsRegister),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Identity != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Identity)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.DeviceFingerprint != "" {
		attrs = append(attrs, slog.String("device_fingerprint", TruncatedFingerprint(event.DeviceFingerprint)))
	}
	if event.DenyType != "" {
		attrs = append(attrs, slog.String("deny_type", event.DenyType))
	}

	if event.Allowed {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogAdminAction logs administrative operations against security state
func (al *AuditLogger) LogAdminAction(action, actor, target string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin"),
		slog.String("action", action),
		slog.String("actor", SanitizedEmail(actor)),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if target != "" {
		attrs = append(attrs, slog.String("target", target))
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
