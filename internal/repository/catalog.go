package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresCatalogRepository reads product pricing and stock.
type PostgresCatalogRepository struct {
	db *sqlx.DB
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository.
func NewPostgresCatalogRepository(db *sqlx.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// GetProducts returns the products with the given IDs. Unknown IDs are
// silently absent from the result.
func (r *PostgresCatalogRepository) GetProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := psql.
		Select("id", "price", "build_price", "stock").
		From("products").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build products query")
	}

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	return products, nil
}
