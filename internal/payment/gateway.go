package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Buyer describes the paying customer as the provider wants it.
type Buyer struct {
	ID      string
	Name    string
	Surname string
	Email   string
	City    string
	Address string
	IP      string
}

// GatewayAddress is the provider-side shape of a shipping or billing
// address.
type GatewayAddress struct {
	ContactName string
	City        string
	Country     string
	Address     string
}

// BasketItem is one provider basket line, derived 1:1 from an order
// item (never from the live cart).
type BasketItem struct {
	ID        string
	Name      string
	Category1 string
	Category2 string
	ItemType  string
	Price     decimal.Decimal
}

// OpenSessionRequest carries everything the provider needs to start a
// checkout attempt for one order.
type OpenSessionRequest struct {
	ConversationID  string
	Price           decimal.Decimal
	Currency        string
	BasketID        string
	CallbackURL     string
	Buyer           Buyer
	ShippingAddress GatewayAddress
	BillingAddress  GatewayAddress
	BasketItems     []BasketItem
}

// Session is an opened checkout attempt: the provider's opaque token
// plus the embeddable form content.
type Session struct {
	Token         string
	FormContent   string
	TokenExpireIn int
}

// Verification is the provider's answer about a session's outcome. The
// BasketID field carries the order id the session was opened for.
type Verification struct {
	Status                string
	ProviderPaymentID     string
	ProviderTransactionID string
	BasketID              string
}

// RefundRequest asks the provider to return a captured amount.
type RefundRequest struct {
	ConversationID string
	TransactionID  string
	Price          decimal.Decimal
	Currency       string
	IP             string
}

// Gateway isolates all interaction with the external payment provider.
// Implementations never retry on their own.
type Gateway interface {
	OpenSession(ctx context.Context, req OpenSessionRequest) (Session, error)
	// VerifySession queries the provider for a session's outcome. It
	// performs no local mutation, so it is safe to call any number of
	// times for the same token.
	VerifySession(ctx context.Context, token string) (Verification, error)
	Refund(ctx context.Context, req RefundRequest) error
}
