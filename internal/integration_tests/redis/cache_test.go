//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/trust/models"
	"crafted/internal/trust/store/cache"
	"crafted/internal/trust/store/memory"
	id "crafted/pkg/domain"
	"crafted/pkg/testutil/containers"
)

func score(workerID id.WorkerID, overall int) *models.TrustScore {
	return &models.TrustScore{
		WorkerID:       workerID,
		OverallScore:   overall,
		IdentityScore:  overall,
		LastCalculated: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCachedScoreStore(t *testing.T) {
	rdb := containers.NewRedis(t)
	ctx := context.Background()

	t.Run("upsert invalidates and the next read fills with a ttl", func(t *testing.T) {
		require.NoError(t, rdb.Flush(ctx))
		backing := memory.New()
		store := cache.New(backing, rdb.Client, cache.WithTTL(time.Minute))
		workerID := id.NewWorkerID()

		require.NoError(t, store.Upsert(ctx, score(workerID, 20)))
		n, err := rdb.Client.Exists(ctx, cache.Key(workerID)).Result()
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		ttl, err := rdb.Client.TTL(ctx, cache.Key(workerID)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		// A backing write that bypasses the cache is invisible until the
		// entry expires or a write through the cache invalidates it.
		require.NoError(t, backing.Upsert(ctx, score(workerID, 25)))
		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.OverallScore)

		require.NoError(t, store.Upsert(ctx, score(workerID, 25)))
		got, err = store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 25, got.OverallScore)
	})

	t.Run("miss populates the cache", func(t *testing.T) {
		require.NoError(t, rdb.Flush(ctx))
		backing := memory.New()
		workerID := id.NewWorkerID()
		require.NoError(t, backing.Upsert(ctx, score(workerID, 15)))
		store := cache.New(backing, rdb.Client)

		_, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)

		n, err := rdb.Client.Exists(ctx, cache.Key(workerID)).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("batch read mixes cached and stored scores", func(t *testing.T) {
		require.NoError(t, rdb.Flush(ctx))
		backing := memory.New()
		store := cache.New(backing, rdb.Client)
		cached, stored, missing := id.NewWorkerID(), id.NewWorkerID(), id.NewWorkerID()
		require.NoError(t, store.Upsert(ctx, score(cached, 10)))
		require.NoError(t, backing.Upsert(ctx, score(stored, 5)))

		got, err := store.FindMany(ctx, []id.WorkerID{cached, stored, missing})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, 10, got[cached].OverallScore)
		assert.Equal(t, 5, got[stored].OverallScore)
	})

	t.Run("insert if absent invalidates", func(t *testing.T) {
		require.NoError(t, rdb.Flush(ctx))
		store := cache.New(memory.New(), rdb.Client)
		workerID := id.NewWorkerID()
		require.NoError(t, store.Upsert(ctx, score(workerID, 10)))
		require.NoError(t, store.InsertIfAbsent(ctx, models.Zero(workerID, time.Now())))

		n, err := rdb.Client.Exists(ctx, cache.Key(workerID)).Result()
		require.NoError(t, err)
		assert.Zero(t, n)

		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.OverallScore)
	})
}
