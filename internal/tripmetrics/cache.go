package tripmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "tripmetrics:version"
	bumpChannel     = "tripmetrics.bump"
)

// Cache wraps Redis based caching with versioning controls. A nil Cache or a
// Cache without client is a pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether lookups hit Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if !c.Enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// Fetch loads a cached value into dest or populates it using loader. Loader
// errors are returned as-is and never cached.
func (c *Cache) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("tripmetrics cache: loader required")
	}
	if !c.Enabled() {
		return load(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	return assign(value, dest)
}

func assign(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the cache by incrementing the global version and
// publishing the new version to other processes.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, err
	}
	return ver, c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bump notifications until ctx
// is done. The version key already lives in Redis, so notifications are only
// logged and never written back.
func (c *Cache) ListenForInvalidation(ctx context.Context, logger *slog.Logger) error {
	if !c.Enabled() {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if logger != nil {
					logger.Info("metrics cache invalidated", slog.String("version", msg.Payload))
				}
			}
		}
	}()
	return nil
}

// cacheKey escapes the range bounds so a ':' inside one cannot shift into the
// other.
func cacheKey(e Endpoint, r DateRange) string {
	return strings.Join([]string{"tripmetrics", string(e), url.QueryEscape(r.Start), url.QueryEscape(r.End)}, ":")
}
