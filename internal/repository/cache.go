package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const (
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

// RedisOrderCache implements OrderCache using Redis.
type RedisOrderCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisOrderCache creates a new Redis-based order cache.
func NewRedisOrderCache(client redis.UniversalClient, ttl time.Duration) *RedisOrderCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLogger("order-cache"),
	}
}

func orderKey(id int64) string {
	return orderKeyPrefix + strconv.FormatInt(id, 10)
}

// Get retrieves an order from cache. A miss returns nil, nil.
func (c *RedisOrderCache) Get(ctx context.Context, id int64) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.WithField("order_id", id).Debug("Cache miss")
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cache get order %d", id)
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, errors.Wrapf(err, "decode cached order %d", id)
	}

	c.logger.WithField("order_id", id).Debug("Cache hit")
	return &order, nil
}

// Set stores an order in cache.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, orderKey(order.ID), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "cache set order %d", order.ID)
	}

	c.logger.WithFields(logging.Fields{
		"order_id": order.ID,
		"ttl":      c.ttl.String(),
	}).Debug("Order cached")
	return nil
}

// Delete removes an order from cache.
func (c *RedisOrderCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, orderKey(id)).Err(); err != nil {
		return errors.Wrapf(err, "cache delete order %d", id)
	}
	return nil
}
