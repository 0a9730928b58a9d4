package models

import "github.com/shopspring/decimal"

// Product is the authoritative catalog state used to price a cart.
type Product struct {
	ID         int64               `json:"id" db:"id"`
	Price      decimal.Decimal     `json:"price" db:"price"`
	BuildPrice decimal.NullDecimal `json:"build_price" db:"build_price"`
	Stock      int                 `json:"stock" db:"stock"`
}

// UnitPrice resolves the price charged for one unit. Build-sourced lines use
// the build price when one is defined.
func (p Product) UnitPrice(isBuild bool) decimal.Decimal {
	if isBuild && p.BuildPrice.Valid {
		return p.BuildPrice.Decimal
	}
	return p.Price
}

// CartLine is one client-supplied line of a cart.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	IsBuild   bool  `json:"is_build"`
}

// Catalog is a snapshot of products keyed by ID.
type Catalog map[int64]Product

// NewCatalog indexes products by ID.
func NewCatalog(products []Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}

// ProductIDs returns the distinct product IDs referenced by lines, in first
// occurrence order.
func ProductIDs(lines []CartLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
