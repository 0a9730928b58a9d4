package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

func ctx() context.Context {
	return context.Background()
}

func newTestCache(t *testing.T) (*RedisOrderCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisOrderCache(client, time.Minute), mr
}

func TestRedisOrderCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t)

	order := &models.Order{
		ID:     101,
		UserID: 7,
		Total:  decimal.RequireFromString("949.97"),
		Status: models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: 6, Quantity: 1, Price: decimal.RequireFromString("589.99")},
		},
	}
	require.NoError(t, cache.Set(ctx(), order))
	assert.True(t, mr.Exists("order:101"))
	assert.Equal(t, time.Minute, mr.TTL("order:101"))

	got, err := cache.Get(ctx(), 101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, order.Total.Equal(got.Total))
	assert.Len(t, got.Items, 1)

	require.NoError(t, cache.Delete(ctx(), 101))
	got, err = cache.Get(ctx(), 101)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisOrderCache_Unavailable(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, err := cache.Get(ctx(), 1)
	assert.Error(t, err)
}
