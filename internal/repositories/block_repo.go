package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lmercadier/sentinelle/internal/database"
	"github.com/lmercadier/sentinelle/internal/models"
)

// BlockRepository handles database operations for block entries
type BlockRepository struct {
	db *database.DB
}

// NewBlockRepository creates a new BlockRepository
func NewBlockRepository(db *database.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// IsBlocked reports whether a permanent block entry exists for the value.
// Non-permanent entries are audit-only and never enforced.
func (r *BlockRepository) IsBlocked(ctx context.Context, scope, value string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM block_entries
			WHERE scope = $1 AND value = $2 AND permanent = true
		)
	`

	var blocked bool
	err := r.db.Pool.QueryRow(ctx, query, scope, value).Scan(&blocked)
	return blocked, err
}

// Add appends a block entry. Entries are never deduplicated.
func (r *BlockRepository) Add(ctx context.Context, entry *models.BlockEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO block_entries (id, scope, value, reason, permanent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.ID,
		entry.Scope,
		entry.Value,
		entry.Reason,
		entry.Permanent,
		entry.CreatedAt,
	)

	return database.MapPostgresError(err)
}

// List returns all block entries for a scope, oldest first
func (r *BlockRepository) List(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
	query := `
		SELECT id, scope, value, reason, permanent, created_at
		FROM block_entries
		WHERE scope = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BlockEntry
	for rows.Next() {
		var entry models.BlockEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Scope,
			&entry.Value,
			&entry.Reason,
			&entry.Permanent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Delete removes a block entry by ID
func (r *BlockRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM block_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
