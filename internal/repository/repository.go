package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// OrderCache defines caching operations for committed orders.
type OrderCache interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id int64) error
}

// Ensure the Redis cache implements OrderCache
var _ OrderCache = (*RedisOrderCache)(nil)
