// Package cache fronts a trust score store with Redis.
//
// Reads go to Redis first and fall back to the backing store. Writes go to the
// backing store and then invalidate; they never write Redis themselves, so two
// racing recomputes cannot leave the older record cached. A read that misses
// takes a short fill lease before it reads the backing store and only
// populates Redis if no write invalidated the lease in between.
//
// The backing store stays the source of truth: a Redis failure never fails a
// read or a write. Entries carry a TTL so an invalidation lost during a Redis
// outage ages out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"crafted/internal/trust/metrics"
	"crafted/internal/trust/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/circuit"
)

const (
	defaultTTL      = 10 * time.Minute
	defaultLeaseTTL = 5 * time.Second
)

// fillScript stores the value only while the caller still holds the lease.
// KEYS[1] value, KEYS[2] lease; ARGV[1] token, ARGV[2] value, ARGV[3] ttl ms.
var fillScript = redis.NewScript(`
if redis.call("GET", KEYS[2]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	redis.call("DEL", KEYS[2])
	return 1
end
return 0
`)

// Backing is the authoritative store behind the cache.
type Backing interface {
	Upsert(ctx context.Context, score *models.TrustScore) error
	FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error)
	FindMany(ctx context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error)
	InsertIfAbsent(ctx context.Context, score *models.TrustScore) error
}

type CachedScoreStore struct {
	backing Backing
	client  redis.Cmdable
	breaker  *circuit.Breaker
	ttl      time.Duration
	leaseTTL time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*CachedScoreStore)

func WithTTL(ttl time.Duration) Option {
	return func(c *CachedScoreStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLeaseTTL bounds how long a missed read may take to fill the cache.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(c *CachedScoreStore) {
		if ttl > 0 {
			c.leaseTTL = ttl
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *CachedScoreStore) { c.breaker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *CachedScoreStore) { c.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedScoreStore) { c.logger = logger }
}

func New(backing Backing, client redis.Cmdable, opts ...Option) *CachedScoreStore {
	c := &CachedScoreStore{
		backing:  backing,
		client:   client,
		breaker:  circuit.New("trust-score-cache"),
		ttl:      defaultTTL,
		leaseTTL: defaultLeaseTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key is the Redis key holding a worker's cached score. The hash tag keeps the
// value and its lease in one cluster slot.
func Key(workerID id.WorkerID) string {
	return "trust:score:{" + workerID.String() + "}"
}

func leaseKey(workerID id.WorkerID) string {
	return "trust:score:lease:{" + workerID.String() + "}"
}

// Upsert invalidates after the backing write commits. Dropping the lease too
// stops a read that started before this write from caching what it saw.
func (c *CachedScoreStore) Upsert(ctx context.Context, score *models.TrustScore) error {
	if err := c.backing.Upsert(ctx, score); err != nil {
		return err
	}
	c.invalidate(ctx, score.WorkerID)
	return nil
}

// InsertIfAbsent does not know whether it wrote, so it invalidates as well.
func (c *CachedScoreStore) InsertIfAbsent(ctx context.Context, score *models.TrustScore) error {
	if err := c.backing.InsertIfAbsent(ctx, score); err != nil {
		return err
	}
	c.invalidate(ctx, score.WorkerID)
	return nil
}

func (c *CachedScoreStore) invalidate(ctx context.Context, workerID id.WorkerID) {
	err := c.client.Del(ctx, Key(workerID), leaseKey(workerID)).Err()
	if err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate cached trust score",
			"worker_id", workerID,
			"error", err,
		)
	}
	c.record(ctx, err)
}

func (c *CachedScoreStore) FindByWorker(ctx context.Context, workerID id.WorkerID) (*models.TrustScore, error) {
	raw, err := c.client.Get(ctx, Key(workerID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.record(ctx, nil)
		c.metrics.IncrementCacheLookup("miss")
	case err != nil:
		c.record(ctx, err)
		c.metrics.IncrementCacheLookup("error")
	default:
		usable := c.record(ctx, nil)
		score, decodeErr := decode(raw)
		if usable && decodeErr == nil {
			c.metrics.IncrementCacheLookup("hit")
			return score, nil
		}
		c.metrics.IncrementCacheLookup("bypass")
	}

	token := c.lease(ctx, workerID)
	score, err := c.backing.FindByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, score, token)
	return score, nil
}

// FindMany serves what it can from one MGET and reads the rest from the
// backing store in one batch.
func (c *CachedScoreStore) FindMany(ctx context.Context, workerIDs []id.WorkerID) (map[id.WorkerID]*models.TrustScore, error) {
	out := make(map[id.WorkerID]*models.TrustScore, len(workerIDs))
	if len(workerIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(workerIDs))
	for i, workerID := range workerIDs {
		keys[i] = Key(workerID)
	}

	missing := workerIDs
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.metrics.IncrementCacheLookup("error")
	}
	if usable := c.record(ctx, err); usable && err == nil {
		missing = make([]id.WorkerID, 0, len(workerIDs))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, workerIDs[i])
				continue
			}
			score, decodeErr := decode([]byte(s))
			if decodeErr != nil {
				missing = append(missing, workerIDs[i])
				continue
			}
			out[workerIDs[i]] = score
		}
	}
	c.metrics.IncrementCacheLookupN("hit", len(out))
	if len(missing) == 0 {
		return out, nil
	}
	c.metrics.IncrementCacheLookupN("miss", len(missing))

	tokens := make(map[id.WorkerID]string, len(missing))
	for _, workerID := range missing {
		tokens[workerID] = c.lease(ctx, workerID)
	}
	found, err := c.backing.FindMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	for workerID, score := range found {
		out[workerID] = score
		c.fill(ctx, score, tokens[workerID])
	}
	return out, nil
}

// lease claims the right to fill workerID's entry. It returns "" when another
// reader holds the lease or Redis is unavailable; the caller then skips the fill.
func (c *CachedScoreStore) lease(ctx context.Context, workerID id.WorkerID) string {
	if c.breaker.IsOpen() {
		return ""
	}
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, leaseKey(workerID), token, c.leaseTTL).Result()
	c.record(ctx, err)
	if err != nil || !ok {
		return ""
	}
	return token
}

// fill caches score if the lease behind token survived the backing read.
func (c *CachedScoreStore) fill(ctx context.Context, score *models.TrustScore, token string) {
	if token == "" {
		return
	}
	raw, err := json.Marshal(score)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode trust score for cache",
			"worker_id", score.WorkerID,
			"error", err,
		)
		return
	}
	filled, err := fillScript.Run(ctx, c.client,
		[]string{Key(score.WorkerID), leaseKey(score.WorkerID)},
		token, raw, c.ttl.Milliseconds(),
	).Int()
	c.record(ctx, err)
	if err == nil && filled == 0 {
		c.metrics.IncrementCacheLookup("fill_skipped")
	}
}

// record feeds one Redis result to the breaker and reports whether cached
// values may be served.
func (c *CachedScoreStore) record(ctx context.Context, err error) bool {
	if err != nil && !errors.Is(err, redis.Nil) {
		_, change := c.breaker.RecordFailure()
		if change.Opened {
			c.logger.WarnContext(ctx, "trust score cache circuit opened",
				"breaker", c.breaker.Name(),
				"error", err,
			)
		}
		return false
	}
	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.InfoContext(ctx, "trust score cache circuit closed",
			"breaker", c.breaker.Name(),
		)
	}
	return usePrimary
}

func decode(raw []byte) (*models.TrustScore, error) {
	var score models.TrustScore
	if err := json.Unmarshal(raw, &score); err != nil {
		return nil, err
	}
	if !score.Valid() {
		return nil, errors.New("cached trust score violates caps")
	}
	return &score, nil
}
