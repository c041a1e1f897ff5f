package catalog

import "github.com/shopspring/decimal"

// Variant is the sellable unit: a concrete product variant with its own
// price and stock counter. Stock is only ever changed through the
// DebitStockTx/CreditStockTx ledger operations.
type Variant struct {
	VariantID      int             `json:"variantId"`
	ProductName    string          `json:"productName"`
	Category       string          `json:"category"`
	ParentCategory string          `json:"parentCategory,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
}
