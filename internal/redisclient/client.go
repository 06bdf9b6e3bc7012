package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	pointsConfigKey   = "settings:points-config"
	sessionSalesKeyF  = "session:%d:sales"
	sessionOpenLock   = "session:open"
	settlementKeyF    = "settlement:order:%d"
	settlementKeepTTL = 24 * time.Hour
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetPointsConfig returns the cached loyalty config, or (nil, nil) on a miss
func (c *Client) GetPointsConfig(ctx context.Context) (*models.PointsConfig, error) {
	data, err := c.rdb.Get(ctx, pointsConfigKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg models.PointsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("corrupt points config cache: %w", err)
	}
	return &cfg, nil
}

// SetPointsConfig caches the loyalty config with a TTL
func (c *Client) SetPointsConfig(ctx context.Context, cfg models.PointsConfig, ttl time.Duration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pointsConfigKey, data, ttl).Err()
}

// InvalidatePointsConfig drops the cached loyalty config after a settings write
func (c *Client) InvalidatePointsConfig(ctx context.Context) error {
	return c.rdb.Del(ctx, pointsConfigKey).Err()
}

// GetSessionSales returns the cached shift aggregate, or (nil, nil) on a miss
func (c *Client) GetSessionSales(ctx context.Context, sessionID int64) (*models.SessionSales, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf(sessionSalesKeyF, sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sales models.SessionSales
	if err := json.Unmarshal(data, &sales); err != nil {
		return nil, fmt.Errorf("corrupt session sales cache: %w", err)
	}
	return &sales, nil
}

// SetSessionSales caches a shift aggregate with a TTL
func (c *Client) SetSessionSales(ctx context.Context, sessionID int64, sales models.SessionSales, ttl time.Duration) error {
	data, err := json.Marshal(sales)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(sessionSalesKeyF, sessionID), data, ttl).Err()
}

// InvalidateSessionSales drops a cached shift aggregate, used when an order
// lands in or leaves the session.
func (c *Client) InvalidateSessionSales(ctx context.Context, sessionID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf(sessionSalesKeyF, sessionID)).Err()
}

// AcquireSessionOpenLock guards the open-store transition across devices.
// The database's partial unique index is the real arbiter; the lock just
// keeps the common case from hitting a constraint error.
func (c *Client) AcquireSessionOpenLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", sessionOpenLock), "1", ttl).Result()
}

// ReleaseSessionOpenLock releases the open-store lock
func (c *Client) ReleaseSessionOpenLock(ctx context.Context) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", sessionOpenLock)).Err()
}

// MarkOrderSettled records a settlement fast-path flag. The durable
// idempotency record is the point_settlements row; this only short-circuits
// retries without a DB round trip.
func (c *Client) MarkOrderSettled(ctx context.Context, orderID int64) error {
	return c.rdb.Set(ctx, fmt.Sprintf(settlementKeyF, orderID), "1", settlementKeepTTL).Err()
}

// IsOrderSettled checks the settlement fast-path flag
func (c *Client) IsOrderSettled(ctx context.Context, orderID int64) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf(settlementKeyF, orderID)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
