package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle. PENDING orders await payment; PROCESSING means the
// payment is confirmed. DELIVERED and CANCELED are terminal.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCanceled   = "CANCELED"
)

// OrderItem snapshots a purchased variant. UnitPrice is captured at
// order creation and never recomputed from the live catalog.
type OrderItem struct {
	OrderItemID int             `json:"orderItemId"`
	OrderID     int             `json:"orderId"`
	VariantID   int             `json:"variantId"`
	ProductName string          `json:"productName"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Order is the durable record of a committed purchase.
type Order struct {
	OrderID           int             `json:"orderId"`
	UserID            int             `json:"userId"`
	Status            string          `json:"status"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	ShippingAddressID int             `json:"shippingAddressId"`
	BillingAddressID  int             `json:"billingAddressId"`
	Items             []OrderItem     `json:"items"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// CanTransition reports whether moving from the order's current status
// to next is allowed. Terminal states admit no transition.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCanceled
	case StatusProcessing:
		return to == StatusShipped || to == StatusCanceled
	case StatusShipped:
		return to == StatusDelivered
	default:
		return false
	}
}
