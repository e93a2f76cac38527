package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lmercadier/sentinelle/internal/models"
)

// In-memory repositories backing the default store. Each guards its map with
// an RWMutex; the gate provides per-identity ordering on top of this, these
// only need to be individually safe under concurrent access.

// MemoryHistoryRepository is an in-memory append-only login history store
type MemoryHistoryRepository struct {
	mu      sync.RWMutex
	records map[string][]*models.LoginRecord
}

// NewMemoryHistoryRepository creates an empty in-memory history store
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{records: make(map[string][]*models.LoginRecord)}
}

func (r *MemoryHistoryRepository) Append(ctx context.Context, record *models.LoginRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	clone := *record

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Identity] = append(r.records[record.Identity], &clone)
	return nil
}

func (r *MemoryHistoryRepository) Latest(ctx context.Context, identity string) (*models.LoginRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.records[identity]
	if len(records) == 0 {
		return nil, nil
	}

	clone := *records[len(records)-1]
	return &clone, nil
}

func (r *MemoryHistoryRepository) Replace(ctx context.Context, record *models.LoginRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	clone := *record

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Identity] = []*models.LoginRecord{&clone}
	return nil
}

func (r *MemoryHistoryRepository) List(ctx context.Context, identity string) ([]*models.LoginRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.records[identity]
	out := make([]*models.LoginRecord, len(records))
	for i, record := range records {
		clone := *record
		out[i] = &clone
	}
	return out, nil
}

// MemoryDeviceRepository is an in-memory known-device store
type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string][]string
}

// NewMemoryDeviceRepository creates an empty in-memory device store
func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{devices: make(map[string][]string)}
}

func (r *MemoryDeviceRepository) IsKnown(ctx context.Context, identity, fingerprint string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, fp := range r.devices[identity] {
		if fp == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryDeviceRepository) Record(ctx context.Context, identity, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, fp := range r.devices[identity] {
		if fp == fingerprint {
			return nil
		}
	}
	r.devices[identity] = append(r.devices[identity], fingerprint)
	return nil
}

func (r *MemoryDeviceRepository) List(ctx context.Context, identity string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.devices[identity]))
	copy(out, r.devices[identity])
	return out, nil
}

// MemoryBlockRepository is an in-memory block registry
type MemoryBlockRepository struct {
	mu      sync.RWMutex
	entries map[string][]*models.BlockEntry // keyed by scope
}

// NewMemoryBlockRepository creates an empty in-memory block registry
func NewMemoryBlockRepository() *MemoryBlockRepository {
	return &MemoryBlockRepository{entries: make(map[string][]*models.BlockEntry)}
}

func (r *MemoryBlockRepository) IsBlocked(ctx context.Context, scope, value string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries[scope] {
		if entry.Value == value && entry.Permanent {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryBlockRepository) Add(ctx context.Context, entry *models.BlockEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	clone := *entry

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.Scope] = append(r.entries[entry.Scope], &clone)
	return nil
}

func (r *MemoryBlockRepository) List(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[scope]
	out := make([]*models.BlockEntry, len(entries))
	for i, entry := range entries {
		clone := *entry
		out[i] = &clone
	}
	return out, nil
}

func (r *MemoryBlockRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for scope, entries := range r.entries {
		for i, entry := range entries {
			if entry.ID == id {
				r.entries[scope] = append(entries[:i], entries[i+1:]...)
				return nil
			}
		}
	}
	return models.ErrNotFound
}

// MemoryLockRepository is an in-memory account lock store
type MemoryLockRepository struct {
	mu    sync.RWMutex
	locks map[string]*models.AccountLock
}

// NewMemoryLockRepository creates an empty in-memory lock store
func NewMemoryLockRepository() *MemoryLockRepository {
	return &MemoryLockRepository{locks: make(map[string]*models.AccountLock)}
}

func (r *MemoryLockRepository) Current(ctx context.Context, identity string, now time.Time) (*models.AccountLock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lock, ok := r.locks[identity]
	if !ok || !lock.InEffect(now) {
		return nil, nil
	}

	clone := *lock
	return &clone, nil
}

func (r *MemoryLockRepository) Set(ctx context.Context, lock *models.AccountLock) error {
	clone := *lock

	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[lock.Identity] = &clone
	return nil
}

func (r *MemoryLockRepository) Delete(ctx context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, identity)
	return nil
}

func (r *MemoryLockRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var removed int64
	for identity, lock := range r.locks {
		if !lock.InEffect(now) {
			delete(r.locks, identity)
			removed++
		}
	}
	return removed, nil
}
