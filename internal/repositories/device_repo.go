package repositories

import (
	"context"
	"time"

	"github.com/lmercadier/sentinelle/internal/database"
)

// DeviceRepository handles database operations for known devices
type DeviceRepository struct {
	db *database.DB
}

// NewDeviceRepository creates a new DeviceRepository
func NewDeviceRepository(db *database.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// IsKnown reports whether a fingerprint has been seen before for an identity
func (r *DeviceRepository) IsKnown(ctx context.Context, identity, fingerprint string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM known_devices
			WHERE identity = $1 AND device_fingerprint = $2
		)
	`

	var known bool
	err := r.db.Pool.QueryRow(ctx, query, identity, fingerprint).Scan(&known)
	return known, err
}

// Record stores a fingerprint for an identity. Recording an already-known
// fingerprint is a no-op.
func (r *DeviceRepository) Record(ctx context.Context, identity, fingerprint string) error {
	query := `
		INSERT INTO known_devices (identity, device_fingerprint, first_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity, device_fingerprint) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query, identity, fingerprint, time.Now())
	return err
}

// List returns an identity's fingerprints in first-seen order
func (r *DeviceRepository) List(ctx context.Context, identity string) ([]string, error) {
	query := `
		SELECT device_fingerprint FROM known_devices
		WHERE identity = $1
		ORDER BY first_seen ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		fingerprints = append(fingerprints, fp)
	}

	return fingerprints, rows.Err()
}
