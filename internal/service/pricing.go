package service

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// TotalTolerance is the largest accepted difference between a client's
// claimed total and the server-computed total.
var TotalTolerance = decimal.New(1, -2)

// PriceCart prices lines against catalog and checks stock. When expected is
// non-nil it must match the computed total within TotalTolerance.
//
// Lines are checked in order and the first failing line decides the error.
// Quantities of repeated products are summed before comparing with stock.
func PriceCart(lines []models.CartLine, catalog models.Catalog, expected *decimal.Decimal) (*models.Quote, error) {
	quote := &models.Quote{
		Lines: make([]models.PricedLine, 0, len(lines)),
		Total: decimal.Zero,
	}
	requested := make(map[int64]int, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errors.Newf(errors.KindInvalidQuantity, "invalid quantity for product %d", line.ProductID).
				With("product_id", line.ProductID).
				With("quantity", line.Quantity)
		}

		product, ok := catalog[line.ProductID]
		if !ok {
			return nil, errors.Newf(errors.KindProductNotFound, "product not found: %d", line.ProductID).
				With("product_id", line.ProductID)
		}

		unit := product.UnitPrice(line.IsBuild)
		if unit.IsNegative() {
			return nil, errors.Newf(errors.KindInvalidPrice, "invalid product price for %d", line.ProductID).
				With("product_id", line.ProductID)
		}

		// inCart never exceeds Stock, so the subtraction cannot overflow.
		inCart := requested[line.ProductID]
		if line.Quantity > product.Stock-inCart {
			return nil, errors.Newf(errors.KindInsufficientStock, "not enough stock for product %d", line.ProductID).
				With("product_id", line.ProductID).
				With("requested", addCapped(inCart, line.Quantity)).
				With("available", product.Stock)
		}
		requested[line.ProductID] = inCart + line.Quantity

		priced := models.PricedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unit,
		}
		quote.Lines = append(quote.Lines, priced)
		quote.Total = quote.Total.Add(priced.Subtotal())
	}

	if expected != nil && expected.Sub(quote.Total).Abs().GreaterThan(TotalTolerance) {
		return nil, errors.New(errors.KindTotalMismatch, "order total mismatch").
			With("expected", expected.StringFixed(2)).
			With("computed", quote.Total.StringFixed(2))
	}

	return quote, nil
}

func addCapped(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}
