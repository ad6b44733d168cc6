package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/pack"
)

// PackCache is a bounded TTL cache over a pack reader. It is advisory only:
// a miss or eviction costs latency, never correctness.
type PackCache struct {
	reader  pack.Reader
	ttl     time.Duration
	maxSize int
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPack
}

type cachedPack struct {
	pack      domain.TriviaPack
	expiresAt time.Time
}

const defaultMaxSize = 1024

func NewPackCache(reader pack.Reader, ttl time.Duration) *PackCache {
	return NewPackCacheWithClock(reader, ttl, time.Now)
}

// NewPackCacheWithClock allows expiry tests without wall-clock sleeps.
func NewPackCacheWithClock(reader pack.Reader, ttl time.Duration, clock func() time.Time) *PackCache {
	return &PackCache{
		reader:  reader,
		ttl:     ttl,
		maxSize: defaultMaxSize,
		clock:   clock,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedPack),
	}
}

func (c *PackCache) GetPack(ctx context.Context, packID string) (domain.TriviaPack, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[packID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.pack, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(packID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[packID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.pack, nil
		}
		c.mu.RUnlock()

		p, err := c.reader.GetPack(ctx, packID)
		if err != nil {
			return domain.TriviaPack{}, err
		}

		c.mu.Lock()
		c.evictLocked(now)
		c.cache[packID] = cachedPack{pack: p, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return domain.TriviaPack{}, err
	}
	return result.(domain.TriviaPack), nil
}

// evictLocked keeps the cache under maxSize: expired entries go first, then
// an arbitrary one.
func (c *PackCache) evictLocked(now time.Time) {
	if len(c.cache) < c.maxSize {
		return
	}
	for id, entry := range c.cache {
		if !entry.expiresAt.After(now) {
			delete(c.cache, id)
			if len(c.cache) < c.maxSize {
				return
			}
		}
	}
	for id := range c.cache {
		delete(c.cache, id)
		return
	}
}

func (c *PackCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
