package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lmercadier/sentinelle/internal/database"
	"github.com/lmercadier/sentinelle/internal/models"
)

// HistoryRepository handles database operations for login records
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append adds a login record to an identity's history
func (r *HistoryRepository) Append(ctx context.Context, record *models.LoginRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO login_records (id, identity, device_fingerprint, ip_address, country_code, is_vpn, attempt_time, locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		record.ID,
		record.Identity,
		record.DeviceFingerprint,
		record.IPAddress,
		record.CountryCode,
		record.IsVPN,
		record.Timestamp,
		record.Locked,
	)

	return database.MapPostgresError(err)
}

// Latest returns the most recent login record for an identity, or nil if the
// identity has no history
func (r *HistoryRepository) Latest(ctx context.Context, identity string) (*models.LoginRecord, error) {
	query := `
		SELECT id, identity, device_fingerprint, ip_address, country_code, is_vpn, attempt_time, locked
		FROM login_records
		WHERE identity = $1
		ORDER BY attempt_time DESC
		LIMIT 1
	`

	var record models.LoginRecord
	err := r.db.Pool.QueryRow(ctx, query, identity).Scan(
		&record.ID,
		&record.Identity,
		&record.DeviceFingerprint,
		&record.IPAddress,
		&record.CountryCode,
		&record.IsVPN,
		&record.Timestamp,
		&record.Locked,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Replace discards an identity's history and starts it over with a single
// record. Used by the registration flow.
func (r *HistoryRepository) Replace(ctx context.Context, record *models.LoginRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM login_records WHERE identity = $1`, record.Identity); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO login_records (id, identity, device_fingerprint, ip_address, country_code, is_vpn, attempt_time, locked)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			record.ID,
			record.Identity,
			record.DeviceFingerprint,
			record.IPAddress,
			record.CountryCode,
			record.IsVPN,
			record.Timestamp,
			record.Locked,
		)
		return err
	})
}

// List returns an identity's full history, oldest first
func (r *HistoryRepository) List(ctx context.Context, identity string) ([]*models.LoginRecord, error) {
	query := `
		SELECT id, identity, device_fingerprint, ip_address, country_code, is_vpn, attempt_time, locked
		FROM login_records
		WHERE identity = $1
		ORDER BY attempt_time ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.LoginRecord
	for rows.Next() {
		var record models.LoginRecord
		if err := rows.Scan(
			&record.ID,
			&record.Identity,
			&record.DeviceFingerprint,
			&record.IPAddress,
			&record.CountryCode,
			&record.IsVPN,
			&record.Timestamp,
			&record.Locked,
		); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
