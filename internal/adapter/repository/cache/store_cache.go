package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"store-directory/internal/store/domain"
)

const (
	storeKeyPrefix = "store:slug:"
	tagCountsKey   = "store:tags"
	storeTTL       = 1 * time.Hour
	tagsTTL        = 10 * time.Minute
)

// StoreCache is a Redis-backed read-through cache for slug lookups and tag
// counts. A miss returns (nil, nil).
type StoreCache struct {
	client *redis.Client
}

func NewStoreCache(addr string) (*StoreCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &StoreCache{client: client}, nil
}

func (c *StoreCache) GetStore(ctx context.Context, slug string) (*domain.Store, error) {
	data, err := c.client.Get(ctx, storeKeyPrefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var store domain.Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *StoreCache) SetStore(ctx context.Context, store *domain.Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, storeKeyPrefix+store.Slug, data, storeTTL).Err()
}

func (c *StoreCache) DeleteStore(ctx context.Context, slug string) error {
	return c.client.Del(ctx, storeKeyPrefix+slug).Err()
}

func (c *StoreCache) GetTagCounts(ctx context.Context) ([]*domain.TagCount, error) {
	data, err := c.client.Get(ctx, tagCountsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var counts []*domain.TagCount
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (c *StoreCache) SetTagCounts(ctx context.Context, counts []*domain.TagCount) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tagCountsKey, data, tagsTTL).Err()
}

func (c *StoreCache) DeleteTagCounts(ctx context.Context) error {
	return c.client.Del(ctx, tagCountsKey).Err()
}

// Close releases the underlying Redis connection pool.
func (c *StoreCache) Close() error {
	return c.client.Close()
}
