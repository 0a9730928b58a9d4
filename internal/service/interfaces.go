package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// UserRepository looks up account state. GetUser returns nil, nil when the
// user does not exist.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// CatalogRepository reads authoritative product state.
type CatalogRepository interface {
	GetProducts(ctx context.Context, ids []int64) ([]models.Product, error)
}

// OrderRepository persists and reads orders.
type OrderRepository interface {
	CommitOrder(ctx context.Context, draft *models.OrderDraft) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
}

// OrderEventPublisher announces order lifecycle changes.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order) error
}
