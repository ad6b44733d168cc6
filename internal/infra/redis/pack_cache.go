// Package redis caches pack payloads in Redis so repeated pack reads skip
// the backing store.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-rotation-service/internal/domain"
	"trivia-rotation-service/internal/pack"
)

// PackCache stores the full pack JSON under pack:{id}. Packs are immutable,
// so a cached value never goes stale; the TTL only bounds memory.
type PackCache struct {
	client *redis.Client
	reader pack.Reader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPackCache(client *redis.Client, reader pack.Reader, ttl time.Duration) *PackCache {
	return &PackCache{
		client: client,
		reader: reader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PackCache) GetPack(ctx context.Context, packID string) (domain.TriviaPack, error) {
	key := c.key(packID)

	if p, ok := c.lookup(ctx, key); ok {
		return p, nil
	}

	result, err, _ := c.sf.Do(packID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if p, ok := c.lookup(ctx, key); ok {
			return p, nil
		}

		p, err := c.reader.GetPack(ctx, packID)
		if err != nil {
			return domain.TriviaPack{}, err
		}

		// Best effort: a failed cache write only costs the next read.
		if data, err := json.Marshal(p); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return p, nil
	})
	if err != nil {
		return domain.TriviaPack{}, err
	}
	return result.(domain.TriviaPack), nil
}

func (c *PackCache) lookup(ctx context.Context, key string) (domain.TriviaPack, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.TriviaPack{}, false
	}
	var p domain.TriviaPack
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.TriviaPack{}, false
	}
	return p, true
}

func (c *PackCache) key(packID string) string {
	return "pack:" + packID
}

func (c *PackCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
