package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment status machine: PENDING -> COMPLETED | FAILED, and a single
// permitted COMPLETED -> REFUNDED transition. A COMPLETED payment is
// otherwise immutable.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusRefunded  = "REFUNDED"
)

const ProviderIyzico = "IYZICO"

var (
	ErrNotFound        = errors.New("payment not found")
	ErrAlreadyPaid     = errors.New("payment already completed")
	ErrNoTransactionID = errors.New("payment has no provider transaction id")
	ErrNotOwner        = errors.New("payment does not belong to this user")
)

// ProviderError carries a failure the gateway itself reported, as
// opposed to connectivity or programming faults.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
	}
	return "provider error: " + e.Message
}

// Payment is the 1:1 settlement record of an order. Never deleted;
// failed attempts are kept for audit.
type Payment struct {
	PaymentID             int             `json:"paymentId"`
	OrderID               int             `json:"orderId"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Provider              string          `json:"provider"`
	Status                string          `json:"status"`
	ProviderToken         string          `json:"providerToken,omitempty"`
	ProviderTransactionID string          `json:"providerTransactionId,omitempty"`
	ProviderPaymentID     string          `json:"providerPaymentId,omitempty"`
	ErrorMessage          string          `json:"errorMessage,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}
