package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oguzkse/bazaar-backend/internal/address"
	"github.com/oguzkse/bazaar-backend/internal/cart"
	"github.com/oguzkse/bazaar-backend/internal/catalog"
	"github.com/oguzkse/bazaar-backend/internal/order"
	"github.com/oguzkse/bazaar-backend/internal/payment"
	"github.com/oguzkse/bazaar-backend/internal/user"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart                 = errors.New("cart is empty")
	ErrCancellationWindowExpired = errors.New("cancellation window has expired")
	ErrNotCancelable             = errors.New("order can no longer be canceled")
)

const defaultCurrency = "TRY"

// Config carries the settlement policies.
type Config struct {
	// CallbackURL is where the provider posts the session token after
	// the shopper completes the checkout form.
	CallbackURL string
	// CancelWindow bounds refunds, measured from order creation.
	CancelWindow time.Duration
	// RefundRestock credits debited stock back on successful refund.
	RefundRestock bool
}

// Service sequences cart, stock, order and payment into the settlement
// flow: checkout, payment initiation, asynchronous confirmation and
// windowed cancellation. Each operation wraps its multi-aggregate
// mutations in a single transaction.
type Service struct {
	db        *sql.DB
	carts     cart.Repository
	stock     catalog.Repository
	orders    order.Repository
	payments  payment.Repository
	addresses address.Repository
	users     user.Repository
	gateway   payment.Gateway
	cfg       Config

	now func() time.Time
}

func NewService(db *sql.DB, carts cart.Repository, stock catalog.Repository, orders order.Repository,
	payments payment.Repository, addresses address.Repository, users user.Repository,
	gateway payment.Gateway, cfg Config) *Service {
	return &Service{
		db:        db,
		carts:     carts,
		stock:     stock,
		orders:    orders,
		payments:  payments,
		addresses: addresses,
		users:     users,
		gateway:   gateway,
		cfg:       cfg,
		now:       time.Now,
	}
}

// withTx runs fn inside a database transaction. With a nil db (the
// in-memory repositories used in tests) fn runs directly; those
// repositories ignore the tx handle.
func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Checkout converts the user's cart into a PENDING order: it debits
// stock for every line, freezes unit prices, creates the order and
// removes the ordered lines from the cart, all in one transaction.
// If any line cannot be covered the whole checkout rolls back and
// nothing is observable.
func (s *Service) Checkout(ctx context.Context, userID, shippingAddressID, billingAddressID int) (order.Order, error) {
	c, err := s.carts.GetCart(userID)
	if err != nil {
		return order.Order{}, err
	}
	if len(c.Items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	if _, err := s.addresses.GetByIDForUser(userID, shippingAddressID); err != nil {
		return order.Order{}, err
	}
	if _, err := s.addresses.GetByIDForUser(userID, billingAddressID); err != nil {
		return order.Order{}, err
	}

	var created order.Order
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		total := decimal.Zero
		items := make([]order.OrderItem, 0, len(c.Items))
		lineIDs := make([]int, 0, len(c.Items))
		for _, line := range c.Items {
			v, err := s.stock.GetVariant(line.VariantID)
			if err != nil {
				return err
			}
			if err := s.stock.DebitStockTx(tx, line.VariantID, line.Quantity); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					return fmt.Errorf("%w for %s", catalog.ErrInsufficientStock, v.ProductName)
				}
				return err
			}
			// unit price is captured here and never recomputed
			items = append(items, order.OrderItem{
				VariantID:   v.VariantID,
				ProductName: v.ProductName,
				Category:    v.Category,
				Quantity:    line.Quantity,
				UnitPrice:   v.Price,
			})
			total = total.Add(v.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			lineIDs = append(lineIDs, line.CartItemID)
		}

		ord, err := s.orders.CreateTx(tx, order.Order{
			UserID:            userID,
			Status:            order.StatusPending,
			TotalPrice:        total,
			ShippingAddressID: shippingAddressID,
			BillingAddressID:  billingAddressID,
			Items:             items,
			CreatedAt:         s.now().UTC(),
		})
		if err != nil {
			return err
		}
		// only the materialized lines are removed; a line added in the
		// meantime is left for the next checkout
		if err := s.carts.RemoveItemsTx(tx, userID, lineIDs); err != nil {
			return err
		}
		created = ord
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}
	return created, nil
}

// InitiateResult is what the caller needs to render the provider's
// checkout form.
type InitiateResult struct {
	Payment       payment.Payment
	FormContent   string
	TokenExpireIn int
}

// Initiate opens a payment session for an order. A failed provider
// call leaves a FAILED payment record behind for audit and returns the
// provider's error to the caller.
func (s *Service) Initiate(ctx context.Context, userID, orderID int, sourceIP string) (InitiateResult, error) {
	ord, err := s.orders.GetByIDForUser(userID, orderID)
	if err != nil {
		return InitiateResult{}, err
	}

	if existing, err := s.payments.GetByOrderID(ord.OrderID); err == nil && existing.Status == payment.StatusCompleted {
		return InitiateResult{}, payment.ErrAlreadyPaid
	} else if err != nil && err != payment.ErrNotFound {
		return InitiateResult{}, err
	}

	buyer, err := s.users.GetByID(userID)
	if err != nil {
		return InitiateResult{}, err
	}
	shipping, err := s.addresses.GetByIDForUser(userID, ord.ShippingAddressID)
	if err != nil {
		return InitiateResult{}, err
	}
	billing, err := s.addresses.GetByIDForUser(userID, ord.BillingAddressID)
	if err != nil {
		return InitiateResult{}, err
	}

	p, err := s.payments.Create(payment.Payment{
		OrderID:  ord.OrderID,
		Amount:   ord.TotalPrice,
		Currency: defaultCurrency,
		Provider: payment.ProviderIyzico,
		Status:   payment.StatusPending,
	})
	if err != nil {
		return InitiateResult{}, err
	}

	req := payment.OpenSessionRequest{
		ConversationID: strconv.Itoa(ord.OrderID),
		Price:          ord.TotalPrice,
		Currency:       defaultCurrency,
		BasketID:       strconv.Itoa(ord.OrderID),
		CallbackURL:    s.cfg.CallbackURL,
		Buyer: payment.Buyer{
			ID:      strconv.Itoa(buyer.ID),
			Name:    buyer.FirstName,
			Surname: buyer.LastName,
			Email:   buyer.Email,
			City:    shipping.City,
			Address: shipping.Street,
			IP:      sourceIP,
		},
		ShippingAddress: gatewayAddress(buyer, shipping),
		BillingAddress:  gatewayAddress(buyer, billing),
	}
	for _, item := range ord.Items {
		req.BasketItems = append(req.BasketItems, payment.BasketItem{
			ID:        strconv.Itoa(item.OrderItemID),
			Name:      item.ProductName,
			Category1: item.Category,
			ItemType:  "PHYSICAL",
			Price:     item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	sess, err := s.gateway.OpenSession(ctx, req)
	if err != nil {
		// keep the failed attempt for audit, then surface the error
		if markErr := s.payments.MarkFailed(p.PaymentID, err.Error()); markErr != nil {
			return InitiateResult{}, markErr
		}
		return InitiateResult{}, err
	}

	if err := s.payments.SetSessionToken(p.PaymentID, sess.Token); err != nil {
		return InitiateResult{}, err
	}
	p.ProviderToken = sess.Token

	return InitiateResult{Payment: p, FormContent: sess.FormContent, TokenExpireIn: sess.TokenExpireIn}, nil
}

func gatewayAddress(buyer user.User, a address.Address) payment.GatewayAddress {
	return payment.GatewayAddress{
		ContactName: buyer.FirstName + " " + buyer.LastName,
		City:        a.City,
		Country:     "Turkey",
		Address:     a.Street,
	}
}

// ConfirmResult reports what a provider callback did.
type ConfirmResult struct {
	OrderID          int
	PaymentID        int
	AlreadyProcessed bool
}

// Confirm handles the provider's asynchronous callback. The token is
// never trusted at face value: the session is verified against the
// provider and the order resolved from the provider's response. A
// payment transitions to COMPLETED at most once; duplicate, concurrent
// or late callbacks, including any re-delivered after a refund, report
// "already processed" instead of failing.
func (s *Service) Confirm(ctx context.Context, token string) (ConfirmResult, error) {
	ver, err := s.gateway.VerifySession(ctx, token)
	if err != nil {
		return ConfirmResult{}, err
	}

	orderID, err := strconv.Atoi(ver.BasketID)
	if err != nil {
		return ConfirmResult{}, &payment.ProviderError{Message: "malformed order id in provider response"}
	}
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		return ConfirmResult{}, err
	}
	p, err := s.payments.GetByOrderID(ord.OrderID)
	if err != nil {
		return ConfirmResult{}, err
	}

	res := ConfirmResult{OrderID: ord.OrderID, PaymentID: p.PaymentID}
	if p.Status != payment.StatusPending {
		res.AlreadyProcessed = true
		return res, nil
	}

	// payment completion and order transition are one atomic unit
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		won, err := s.payments.CompleteTx(tx, p.PaymentID, ver.ProviderPaymentID, ver.ProviderTransactionID)
		if err != nil {
			return err
		}
		if !won {
			res.AlreadyProcessed = true
			return nil
		}
		if !order.CanTransition(ord.Status, order.StatusProcessing) {
			return nil
		}
		return s.orders.SetStatusTx(tx, ord.OrderID, order.StatusProcessing)
	})
	if err != nil {
		return ConfirmResult{}, err
	}
	return res, nil
}

// Cancel refunds a payment and cancels its order. Guards, in order:
// the payment and its order must exist, the order must still be in a
// cancelable status, it must be younger than the cancel window, and a
// provider transaction id must be on record. Ownership is enforced
// before any provider call.
func (s *Service) Cancel(ctx context.Context, userID, paymentID int, sourceIP string) error {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		return err
	}
	ord, err := s.orders.GetByID(p.OrderID)
	if err != nil {
		return err
	}
	if ord.UserID != userID {
		return payment.ErrNotOwner
	}
	if !order.CanTransition(ord.Status, order.StatusCanceled) {
		return ErrNotCancelable
	}

	if s.now().UTC().Sub(ord.CreatedAt) > s.cfg.CancelWindow {
		return ErrCancellationWindowExpired
	}
	if p.ProviderTransactionID == "" {
		return payment.ErrNoTransactionID
	}

	if err := s.gateway.Refund(ctx, payment.RefundRequest{
		ConversationID: strconv.Itoa(ord.OrderID),
		TransactionID:  p.ProviderTransactionID,
		Price:          p.Amount,
		Currency:       p.Currency,
		IP:             sourceIP,
	}); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.payments.RefundTx(tx, p.PaymentID); err != nil {
			return err
		}
		if err := s.orders.SetStatusTx(tx, ord.OrderID, order.StatusCanceled); err != nil {
			return err
		}
		if s.cfg.RefundRestock {
			for _, item := range ord.Items {
				if err := s.stock.CreditStockTx(tx, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// PaymentForOrder returns the payment record of an order the user owns.
func (s *Service) PaymentForOrder(userID, orderID int) (payment.Payment, error) {
	ord, err := s.orders.GetByIDForUser(userID, orderID)
	if err != nil {
		return payment.Payment{}, err
	}
	return s.payments.GetByOrderID(ord.OrderID)
}
