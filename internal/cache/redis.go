package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/equb/config"
	"github.com/Domenick1991/equb/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps rendered ticket board pages. Pages are keyed under a
// version counter so one INCR drops every cached page at once.
type RedisCache struct {
	client   redis.Cmdable
	boardTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		cfg.BoardTTL(),
	)
}

func NewRedisCacheWithClient(client redis.Cmdable, boardTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, boardTTL: boardTTL}
}

// GetBoardPage returns the cached page, or nil on a miss, together with the
// board version it was looked up under. A page built after a miss must be
// stored under that version so a concurrent invalidation is not undone.
func (c *RedisCache) GetBoardPage(ctx context.Context, cursor, limit int) (*domain.BoardPage, int64, error) {
	version, err := c.boardVersion(ctx)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, boardPageKey(version, cursor, limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, nil
		}
		return nil, version, err
	}

	var page domain.BoardPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, version, err
	}
	return &page, version, nil
}

func (c *RedisCache) SetBoardPage(ctx context.Context, version int64, cursor, limit int, page *domain.BoardPage) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, boardPageKey(version, cursor, limit), payload, c.boardTTL).Err()
}

func (c *RedisCache) InvalidateBoard(ctx context.Context) error {
	return c.client.Incr(ctx, boardVersionKey()).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) boardVersion(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, boardVersionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func boardVersionKey() string {
	return "cache:board:version"
}

func boardPageKey(version int64, cursor, limit int) string {
	return fmt.Sprintf("cache:board:v%d:after:%d:limit:%d", version, cursor, limit)
}
