package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/oguzkse/bazaar-backend/internal/address"
	"github.com/oguzkse/bazaar-backend/internal/cart"
	"github.com/oguzkse/bazaar-backend/internal/catalog"
	"github.com/oguzkse/bazaar-backend/internal/order"
	"github.com/oguzkse/bazaar-backend/internal/payment"
	"github.com/oguzkse/bazaar-backend/internal/user"
)

func newSQLService(t *testing.T) (*Service, sqlmock.Sqlmock, *fakeGateway) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gw := &fakeGateway{}
	svc := NewService(db,
		cart.NewPostgresRepository(db),
		catalog.NewPostgresRepository(db),
		order.NewPostgresRepository(db),
		payment.NewPostgresRepository(db),
		address.NewPostgresRepository(db),
		user.NewPostgresRepository(db),
		gw, Config{CancelWindow: 24 * time.Hour, RefundRestock: true})
	return svc, mock, gw
}

// A failing stock debit on the second cart line must roll back the
// whole checkout: no order insert, no cart clear, first debit undone.
func TestCheckout_RollsBackOnInsufficientStock(t *testing.T) {
	svc, mock, _ := newSQLService(t)

	mock.ExpectQuery("INSERT INTO carts").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id"}).AddRow(1))
	mock.ExpectQuery("SELECT cart_item_id").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"cart_item_id", "variant_id", "quantity"}).
			AddRow(1, 7, 2).
			AddRow(2, 8, 1))

	addressRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"address_id", "user_id", "address_type", "street", "city", "postal_code"}).
			AddRow(10, 1, "SHIPPING", "Mesrutiyet Cd. 1", "Istanbul", "34000")
	}
	mock.ExpectQuery("FROM addresses").WithArgs(1, 10).WillReturnRows(addressRows())
	mock.ExpectQuery("FROM addresses").WithArgs(1, 11).WillReturnRows(addressRows())

	mock.ExpectBegin()

	mock.ExpectQuery("FROM product_variants").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"variant_id", "product_name", "category", "parent_category", "price", "stock"}).
			AddRow(7, "Mama 5kg", "Food", "", "120.50", 5))
	mock.ExpectExec("UPDATE product_variants SET stock = stock -").WithArgs(7, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("FROM product_variants").WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"variant_id", "product_name", "category", "parent_category", "price", "stock"}).
			AddRow(8, "Tasma", "Supplies", "", "45.00", 0))
	// second debit finds no coverable row
	mock.ExpectExec("UPDATE product_variants SET stock = stock -").WithArgs(8, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), 1, 10, 11)
	if !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Payment completion and the order status change commit together.
func TestConfirm_PaymentAndOrderCommitAsOneUnit(t *testing.T) {
	svc, mock, gw := newSQLService(t)
	gw.basketID = "42"

	now := time.Now().UTC()
	mock.ExpectQuery("FROM orders").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "user_id", "status", "total_price", "shipping_address_id", "billing_address_id", "created_at"}).
			AddRow(42, 1, "PENDING", "241.00", 10, 11, now))
	mock.ExpectQuery("FROM order_items").
		WillReturnRows(sqlmock.NewRows([]string{"order_item_id", "order_id", "variant_id", "product_name", "category", "quantity", "unit_price"}).
			AddRow(1, 42, 7, "Mama 5kg", "Food", 2, "120.50"))
	mock.ExpectQuery("FROM payments").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "order_id", "amount", "currency", "provider", "status",
			"provider_token", "provider_transaction_id", "provider_payment_id", "error_message", "created_at", "updated_at"}).
			AddRow(5, 42, "241.00", "TRY", "IYZICO", "PENDING", "tok-42", "", "", "", now, now))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Confirm(context.Background(), "tok-42")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if res.AlreadyProcessed {
		t.Error("fresh confirmation must not report already processed")
	}
	if res.OrderID != 42 || res.PaymentID != 5 {
		t.Errorf("unexpected result: %+v", res)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
