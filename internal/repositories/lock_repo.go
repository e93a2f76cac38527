package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lmercadier/sentinelle/internal/database"
	"github.com/lmercadier/sentinelle/internal/models"
)

// LockRepository handles database operations for account locks
type LockRepository struct {
	db *database.DB
}

// NewLockRepository creates a new LockRepository
func NewLockRepository(db *database.DB) *LockRepository {
	return &LockRepository{db: db}
}

// Current returns the identity's lock if it is still in effect at now,
// otherwise nil. Expired rows are left in place; the sweeper removes them.
func (r *LockRepository) Current(ctx context.Context, identity string, now time.Time) (*models.AccountLock, error) {
	query := `
		SELECT identity, locked_until, reason
		FROM account_locks
		WHERE identity = $1 AND locked_until > $2
	`

	var lock models.AccountLock
	err := r.db.Pool.QueryRow(ctx, query, identity, now).Scan(
		&lock.Identity,
		&lock.LockedUntil,
		&lock.Reason,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &lock, nil
}

// Set creates or overwrites the identity's lock (last write wins)
func (r *LockRepository) Set(ctx context.Context, lock *models.AccountLock) error {
	query := `
		INSERT INTO account_locks (identity, locked_until, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity) DO UPDATE SET locked_until = $2, reason = $3
	`

	_, err := r.db.Pool.Exec(ctx, query, lock.Identity, lock.LockedUntil, lock.Reason)
	return err
}

// Delete removes an identity's lock regardless of expiry
func (r *LockRepository) Delete(ctx context.Context, identity string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM account_locks WHERE identity = $1`, identity)
	return err
}

// DeleteExpired removes locks whose expiry has passed
func (r *LockRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM account_locks WHERE locked_until <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
