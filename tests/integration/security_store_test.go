package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercadier/sentinelle/internal/models"
)

// Postgres-backed store round trips. Spins up a real database per test run.

func setupStore(t *testing.T) (*TestDB, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := db.Teardown(context.Background()); err != nil {
			t.Logf("teardown failed: %v", err)
		}
	})

	return db, ctx
}

func TestPostgresStore_HistoryRoundTrip(t *testing.T) {
	db, ctx := setupStore(t)
	history, _, _, _ := InitializeRepositories(db.DB)

	identity := "user@example.com"
	first := &models.LoginRecord{
		Identity:          identity,
		DeviceFingerprint: "fp-1",
		IPAddress:         "203.0.113.5",
		CountryCode:       "FR",
		Timestamp:         time.Now().UTC().Add(-time.Hour),
	}
	second := &models.LoginRecord{
		Identity:          identity,
		DeviceFingerprint: "fp-2",
		IPAddress:         "203.0.113.6",
		CountryCode:       "DE",
		IsVPN:             false,
		Timestamp:         time.Now().UTC(),
	}

	require.NoError(t, history.Append(ctx, first))
	require.NoError(t, history.Append(ctx, second))

	latest, err := history.Latest(ctx, identity)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "fp-2", latest.DeviceFingerprint)
	assert.Equal(t, "DE", latest.CountryCode)

	records, err := history.List(ctx, identity)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fp-1", records[0].DeviceFingerprint, "list should be oldest first")

	// Replace collapses the history to a single record
	require.NoError(t, history.Replace(ctx, &models.LoginRecord{
		Identity:          identity,
		DeviceFingerprint: "fp-3",
		IPAddress:         "203.0.113.7",
		CountryCode:       "FR",
		Timestamp:         time.Now().UTC(),
	}))

	records, err = history.List(ctx, identity)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fp-3", records[0].DeviceFingerprint)

	// Unknown identity
	latest, err = history.Latest(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestPostgresStore_DeviceRoundTrip(t *testing.T) {
	db, ctx := setupStore(t)
	_, devices, _, _ := InitializeRepositories(db.DB)

	identity := "user@example.com"

	known, err := devices.IsKnown(ctx, identity, "fp-1")
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, devices.Record(ctx, identity, "fp-1"))
	// Recording the same device twice is a no-op
	require.NoError(t, devices.Record(ctx, identity, "fp-1"))
	require.NoError(t, devices.Record(ctx, identity, "fp-2"))

	known, err = devices.IsKnown(ctx, identity, "fp-1")
	require.NoError(t, err)
	assert.True(t, known)

	list, err := devices.List(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, []string{"fp-1", "fp-2"}, list)

	// Devices are scoped per identity
	known, err = devices.IsKnown(ctx, "other@example.com", "fp-1")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestPostgresStore_BlockRoundTrip(t *testing.T) {
	db, ctx := setupStore(t)
	_, _, blocks, _ := InitializeRepositories(db.DB)

	entry := &models.BlockEntry{
		Scope:     models.BlockScopeIP,
		Value:     "203.0.113.99",
		Reason:    "manual review",
		Permanent: true,
	}
	require.NoError(t, blocks.Add(ctx, entry))
	require.NotEmpty(t, entry.ID, "Add should assign an ID")

	blocked, err := blocks.IsBlocked(ctx, models.BlockScopeIP, "203.0.113.99")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Non-permanent entries are audit-only
	require.NoError(t, blocks.Add(ctx, &models.BlockEntry{
		Scope: models.BlockScopeIP,
		Value: "203.0.113.100",
	}))
	blocked, err = blocks.IsBlocked(ctx, models.BlockScopeIP, "203.0.113.100")
	require.NoError(t, err)
	assert.False(t, blocked)

	list, err := blocks.List(ctx, models.BlockScopeIP)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, blocks.Delete(ctx, entry.ID))
	blocked, err = blocks.IsBlocked(ctx, models.BlockScopeIP, "203.0.113.99")
	require.NoError(t, err)
	assert.False(t, blocked)

	err = blocks.Delete(ctx, entry.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostgresStore_LockRoundTrip(t *testing.T) {
	db, ctx := setupStore(t)
	_, _, _, locks := InitializeRepositories(db.DB)

	identity := "user@example.com"
	now := time.Now().UTC()

	lock, err := locks.Current(ctx, identity, now)
	require.NoError(t, err)
	assert.Nil(t, lock)

	require.NoError(t, locks.Set(ctx, &models.AccountLock{
		Identity:    identity,
		LockedUntil: now.Add(24 * time.Hour),
		Reason:      "New device detected",
	}))

	lock, err = locks.Current(ctx, identity, now)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "New device detected", lock.Reason)

	// Setting again overwrites the existing lock
	require.NoError(t, locks.Set(ctx, &models.AccountLock{
		Identity:    identity,
		LockedUntil: now.Add(time.Hour),
		Reason:      "Suspicious IP detected",
	}))

	lock, err = locks.Current(ctx, identity, now)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "Suspicious IP detected", lock.Reason)

	// Expired locks are invisible to Current and swept by DeleteExpired
	lock, err = locks.Current(ctx, identity, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, lock)

	require.NoError(t, locks.Set(ctx, &models.AccountLock{
		Identity:    "expired@example.com",
		LockedUntil: now.Add(-time.Minute),
		Reason:      "VPN/Proxy detected",
	}))

	purged, err := locks.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))

	require.NoError(t, locks.Delete(ctx, identity))
	lock, err = locks.Current(ctx, identity, now)
	require.NoError(t, err)
	assert.Nil(t, lock)
}
