package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/trust/models"
	"crafted/internal/trust/store/memory"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/circuit"
	"crafted/pkg/platform/sentinel"
)

// unreachable returns a client whose every command fails fast.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func score(workerID id.WorkerID) *models.TrustScore {
	return scoreOf(workerID, 40)
}

// scoreOf builds a valid record whose overall score is skill plus identity.
func scoreOf(workerID id.WorkerID, overall int) *models.TrustScore {
	identity := min(overall, 25)
	return &models.TrustScore{
		WorkerID:       workerID,
		OverallScore:   overall,
		IdentityScore:  identity,
		SkillScore:     overall - identity,
		LastCalculated: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// gatedBacking pauses the first FindByWorker after the backing read so a
// write can land before the reader tries to fill the cache.
type gatedBacking struct {
	Backing
	reading chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedBacking(inner Backing) *gatedBacking {
	return &gatedBacking{Backing: inner, reading: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedBacking) FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	score, err := g.Backing.FindByWorker(ctx, workerID)
	g.once.Do(func() {
		close(g.reading)
		<-g.release
	})
	return score, err
}

func TestCachedScoreStore_Invalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("a write invalidates and the next read repopulates", func(t *testing.T) {
		mr, client := newMiniredis(t)
		backing := memory.New()
		store := New(backing, client, WithTTL(time.Minute))
		workerID := id.NewWorkerID()

		require.NoError(t, store.Upsert(ctx, scoreOf(workerID, 20)))
		assert.False(t, mr.Exists(Key(workerID)), "writes never populate the cache")

		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.OverallScore)
		assert.True(t, mr.Exists(Key(workerID)))
		assert.Greater(t, mr.TTL(Key(workerID)), time.Duration(0))

		require.NoError(t, store.Upsert(ctx, scoreOf(workerID, 30)))
		assert.False(t, mr.Exists(Key(workerID)))
		got, err = store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 30, got.OverallScore)
	})

	t.Run("interleaved recomputes leave the last stored record readable", func(t *testing.T) {
		_, client := newMiniredis(t)
		backing := memory.New()
		store := New(backing, client)
		workerID := id.NewWorkerID()
		_, err := store.FindByWorker(ctx, workerID)
		require.Error(t, err)

		// A and B both land in the backing store; B lands last.
		require.NoError(t, store.Upsert(ctx, scoreOf(workerID, 10)))
		require.NoError(t, store.Upsert(ctx, scoreOf(workerID, 35)))

		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		stored, err := backing.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, stored.OverallScore, got.OverallScore)
		assert.Equal(t, 35, got.OverallScore)
	})

	t.Run("a read that straddles a write does not cache what it saw", func(t *testing.T) {
		mr, client := newMiniredis(t)
		inner := memory.New()
		workerID := id.NewWorkerID()
		require.NoError(t, inner.Upsert(ctx, scoreOf(workerID, 12)))
		backing := newGatedBacking(inner)
		store := New(backing, client)

		seen := make(chan *models.TrustScore, 1)
		go func() {
			got, err := store.FindByWorker(ctx, workerID)
			assert.NoError(t, err)
			seen <- got
		}()
		<-backing.reading
		require.NoError(t, store.Upsert(ctx, scoreOf(workerID, 44)))
		close(backing.release)

		assert.Equal(t, 12, (<-seen).OverallScore, "the racing reader answers with what it read")
		assert.False(t, mr.Exists(Key(workerID)), "but its fill is refused")

		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 44, got.OverallScore)
	})

	t.Run("a lease held by another reader skips the fill", func(t *testing.T) {
		mr, client := newMiniredis(t)
		backing := memory.New()
		workerID := id.NewWorkerID()
		require.NoError(t, backing.Upsert(ctx, scoreOf(workerID, 18)))
		require.NoError(t, mr.Set(leaseKey(workerID), "someone-else"))
		store := New(backing, client)

		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 18, got.OverallScore)
		assert.False(t, mr.Exists(Key(workerID)))
	})

	t.Run("batch reads fill misses under leases", func(t *testing.T) {
		mr, client := newMiniredis(t)
		backing := memory.New()
		store := New(backing, client)
		a, b := id.NewWorkerID(), id.NewWorkerID()
		require.NoError(t, backing.Upsert(ctx, scoreOf(a, 5)))
		require.NoError(t, backing.Upsert(ctx, scoreOf(b, 9)))

		got, err := store.FindMany(ctx, []id.WorkerID{a, b, id.NewWorkerID()})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.True(t, mr.Exists(Key(a)))
		assert.True(t, mr.Exists(Key(b)))
		assert.False(t, mr.Exists(leaseKey(a)), "a successful fill releases its lease")
	})
}

func TestCachedScoreStore_RedisDown(t *testing.T) {
	ctx := context.Background()

	t.Run("reads and writes fall back to the backing store", func(t *testing.T) {
		backing := memory.New()
		store := New(backing, unreachable(t))
		workerID := id.WorkerID(uuid.New())

		require.NoError(t, store.Upsert(ctx, score(workerID)))

		got, err := store.FindByWorker(ctx, workerID)
		require.NoError(t, err)
		assert.Equal(t, 40, got.OverallScore)

		many, err := store.FindMany(ctx, []id.WorkerID{workerID, id.WorkerID(uuid.New())})
		require.NoError(t, err)
		assert.Len(t, many, 1)
	})

	t.Run("missing score stays not found", func(t *testing.T) {
		store := New(memory.New(), unreachable(t))
		_, err := store.FindByWorker(ctx, id.WorkerID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("insert if absent survives redis failure", func(t *testing.T) {
		backing := memory.New()
		store := New(backing, unreachable(t))
		workerID := id.WorkerID(uuid.New())

		require.NoError(t, store.InsertIfAbsent(ctx, models.Zero(workerID, time.Now())))
		_, err := backing.FindByWorker(ctx, workerID)
		assert.NoError(t, err)
	})

	t.Run("repeated failures open the breaker", func(t *testing.T) {
		breaker := circuit.New("test", circuit.WithFailureThreshold(2))
		store := New(memory.New(), unreachable(t), WithBreaker(breaker))

		for range 2 {
			_, _ = store.FindByWorker(ctx, id.WorkerID(uuid.New()))
		}
		assert.True(t, breaker.IsOpen())
	})
}

func TestDecodeRejectsInvalidRecord(t *testing.T) {
	_, err := decode([]byte(`{"overall_score": 99, "identity_score": 99}`))
	assert.Error(t, err)

	_, err = decode([]byte(`not json`))
	assert.Error(t, err)
}
