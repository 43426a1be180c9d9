package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, context.Context) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, context.Background()
}

func TestClaimIsOncePerID(t *testing.T) {
	mr, ctx := newTestRedis(t)
	rdb := New(mr.Addr())

	ok, err := Claim(ctx, rdb, "impact", "o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Claim(ctx, rdb, "impact", "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Claim(ctx, rdb, "notifications", "o-1")
	require.NoError(t, err)
	assert.True(t, ok, "claims are scoped per consumer")

	require.NoError(t, Unclaim(ctx, rdb, "impact", "o-1"))
	ok, err = Claim(ctx, rdb, "impact", "o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, TTLDedup, mr.TTL("dedup:impact:o-1"))
}

func TestIdempotentOrder(t *testing.T) {
	mr, ctx := newTestRedis(t)
	rdb := New(mr.Addr())

	_, found, err := IdempotentOrder(ctx, rdb, "b-1", "k-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, RememberOrder(ctx, rdb, "b-1", "k-1", "o-9"))

	id, found, err := IdempotentOrder(ctx, rdb, "b-1", "k-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "o-9", id)

	_, found, err = IdempotentOrder(ctx, rdb, "b-2", "k-1")
	require.NoError(t, err)
	assert.False(t, found, "keys are scoped per buyer")

	mr.FastForward(TTLIdempotency + time.Second)
	_, found, err = IdempotentOrder(ctx, rdb, "b-1", "k-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatusCache(t *testing.T) {
	mr, ctx := newTestRedis(t)
	rdb := New(mr.Addr())

	cs, err := GetStatus(ctx, rdb, "o-1")
	require.NoError(t, err)
	assert.Nil(t, cs)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, SetStatus(ctx, rdb, "o-1", CachedStatus{Status: "PAID", UpdatedAt: at}))

	cs, err = GetStatus(ctx, rdb, "o-1")
	require.NoError(t, err)
	require.NotNil(t, cs)
	assert.Equal(t, "PAID", cs.Status)
	assert.True(t, at.Equal(cs.UpdatedAt))

	assert.True(t, mr.Exists("order_status:o-1"))
	ttl := mr.TTL("order_status:o-1")
	assert.Equal(t, TTLStatusCache, ttl)

	require.NoError(t, DropStatus(ctx, rdb, "o-1"))
	cs, err = GetStatus(ctx, rdb, "o-1")
	require.NoError(t, err)
	assert.Nil(t, cs)
}

func TestStaleStatusCannotOverwriteNewer(t *testing.T) {
	mr, ctx := newTestRedis(t)
	rdb := New(mr.Addr())
	older := time.Now().UTC().Add(-time.Minute)

	tests := []struct {
		name    string
		prepare func(t *testing.T)
	}{
		{
			name: "afterInvalidation",
			prepare: func(t *testing.T) {
				require.NoError(t, DropStatus(ctx, rdb, "o-1"))
			},
		},
		{
			name: "afterNewerStatus",
			prepare: func(t *testing.T) {
				require.NoError(t, SetStatus(ctx, rdb, "o-1", CachedStatus{Status: "PAID", UpdatedAt: older.Add(30 * time.Second)}))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr.FlushAll()
			tt.prepare(t)

			require.NoError(t, SetStatus(ctx, rdb, "o-1", CachedStatus{Status: "PENDING", UpdatedAt: older}))

			cs, err := GetStatus(ctx, rdb, "o-1")
			require.NoError(t, err)
			if cs != nil {
				assert.Equal(t, "PAID", cs.Status)
			}
		})
	}

	// a status committed after the invalidation is cached again
	mr.FlushAll()
	require.NoError(t, DropStatus(ctx, rdb, "o-1"))
	assert.Equal(t, TTLInvalidation, mr.TTL("order_status:o-1"))
	require.NoError(t, SetStatus(ctx, rdb, "o-1", CachedStatus{Status: "READY", UpdatedAt: time.Now().UTC().Add(time.Second)}))
	cs, err := GetStatus(ctx, rdb, "o-1")
	require.NoError(t, err)
	require.NotNil(t, cs)
	assert.Equal(t, "READY", cs.Status)
}
