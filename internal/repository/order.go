package repository

import (
	"context"
	"database/sql"
	"math"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	apperrors "github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const orderColumns = "id, user_id, total_amount, shipping_address, status, created_at, updated_at"

// PostgresOrderRepository persists orders, their items and the matching
// stock movements.
type PostgresOrderRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logging.NewLogger("order-repository"),
	}
}

// CommitOrder writes the order, one item per priced line and the stock
// decrements in a single transaction. A product whose stock dropped below the
// requested quantity since validation aborts the whole commit.
func (r *PostgresOrderRepository) CommitOrder(ctx context.Context, draft *models.OrderDraft) (*models.Order, error) {
	order, err := r.commit(ctx, draft)
	if err != nil {
		r.logger.WithFields(logging.Fields{
			"user_id": draft.UserID,
			"error":   err.Error(),
		}).Error("Order commit rolled back")
		return nil, apperrors.Wrap(err, apperrors.KindOrderCommitFailed, "failed to commit order")
	}

	r.logger.WithFields(logging.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total.StringFixed(2),
	}).Info("Order committed")
	return order, nil
}

func (r *PostgresOrderRepository) commit(ctx context.Context, draft *models.OrderDraft) (*models.Order, error) {
	demands, err := stockDemand(draft.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	order := &models.Order{
		UserID:          draft.UserID,
		Total:           draft.Total,
		ShippingAddress: draft.ShippingAddress,
		Status:          models.OrderStatusPending,
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO orders (user_id, total_amount, shipping_address, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		order.UserID, order.Total, order.ShippingAddress, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	order.Items = make([]models.OrderItem, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		}
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "insert item for product %d", line.ProductID)
		}
		order.Items = append(order.Items, item)
	}

	for _, d := range demands {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = NOW()
			 WHERE id = $2 AND stock >= $1`,
			d.quantity, d.productID,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "decrement stock for product %d", d.productID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, errors.Wrap(err, "rows affected")
		}
		if n == 0 {
			return nil, apperrors.Newf(apperrors.KindInsufficientStock,
				"stock for product %d changed before commit", d.productID).
				With("product_id", d.productID).
				With("requested", d.quantity)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit transaction")
	}
	return order, nil
}

type demand struct {
	productID int64
	quantity  int
}

// maxQuantity is the largest value the INTEGER stock and quantity columns hold.
const maxQuantity = math.MaxInt32

// stockDemand sums quantities per product, ordered by product ID so that
// concurrent commits lock rows in the same order. A line or a per-product sum
// outside (0, maxQuantity] is rejected.
func stockDemand(lines []models.PricedLine) ([]demand, error) {
	totals := make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > maxQuantity-totals[l.ProductID] {
			return nil, apperrors.Newf(apperrors.KindInsufficientStock,
				"quantity for product %d out of range", l.ProductID).
				With("product_id", l.ProductID)
		}
		totals[l.ProductID] += l.Quantity
	}

	out := make([]demand, 0, len(totals))
	for id, q := range totals {
		out = append(out, demand{productID: id, quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out, nil
}

// GetByID retrieves an order and its items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.KindNotFound, "order %d not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select order %d", id)
	}

	if err := r.db.SelectContext(ctx, &order.Items,
		`SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`,
		id,
	); err != nil {
		return nil, errors.Wrapf(err, "select items for order %d", id)
	}
	return &order, nil
}

// ListByUser returns a page of a user's orders, newest first, with items.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	query, args, err := psql.
		Select(orderColumns).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build orders query")
	}

	var orders []*models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query, args, err = psql.
		Select("id", "order_id", "product_id", "quantity", "price").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build items query")
	}

	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return orders, nil
}

// UpdateStatus moves an order to a new lifecycle status. Cancelling returns
// the order's quantities to stock in the same transaction.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	var current models.OrderStatus
	err = tx.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Newf(apperrors.KindNotFound, "order %d not found", id)
	}
	if err != nil {
		return errors.Wrapf(err, "lock order %d", id)
	}

	if !current.CanTransitionTo(status) {
		return apperrors.Newf(apperrors.KindInvalidRequest,
			"order %d cannot move from %s to %s", id, current, status).
			With("from", current).
			With("to", status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	); err != nil {
		return errors.Wrapf(err, "update order %d", id)
	}

	if status == models.OrderStatusCancelled {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products p SET stock = p.stock + i.qty, updated_at = NOW()
			 FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id = $1 GROUP BY product_id) i
			 WHERE p.id = i.product_id`,
			id,
		); err != nil {
			return errors.Wrapf(err, "restock order %d", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	r.logger.WithFields(logging.Fields{
		"order_id": id,
		"from":     current,
		"to":       status,
	}).Info("Order status updated")
	return nil
}
