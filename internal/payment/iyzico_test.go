package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *IyzicoGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewIyzicoGateway(srv.URL, "api-key", "secret-key")
}

func TestOpenSession_Success(t *testing.T) {
	var captured iyzicoInitializeRequest
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != iyzicoInitializePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("missing authorization header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":              "success",
			"token":               "tok-1",
			"checkoutFormContent": "<form/>",
		})
	})

	sess, err := gw.OpenSession(context.Background(), OpenSessionRequest{
		ConversationID: "42",
		Price:          decimal.RequireFromString("241.00"),
		Currency:       "TRY",
		BasketID:       "42",
		CallbackURL:    "http://localhost/payment/callback",
		Buyer:          Buyer{ID: "1", Name: "Ayse", Surname: "Yilmaz", Email: "ayse@example.com", City: "Istanbul", Address: "Mesrutiyet Cd. 1", IP: "85.34.78.112"},
		BasketItems: []BasketItem{
			{ID: "1", Name: "Mama 5kg", Category1: "Food", ItemType: "PHYSICAL", Price: decimal.RequireFromString("241.00")},
		},
	})
	if err != nil {
		t.Fatalf("open session failed: %v", err)
	}

	if sess.Token != "tok-1" || sess.FormContent != "<form/>" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if sess.TokenExpireIn != 1800 {
		t.Errorf("expected 1800s expiry, got %d", sess.TokenExpireIn)
	}
	if captured.BasketID != "42" || captured.PaidPrice != "241.00" {
		t.Errorf("unexpected provider request: %+v", captured)
	}
	if captured.PaymentGroup != "PRODUCT" || captured.Buyer.Country != "Turkey" {
		t.Errorf("provider constants missing: %+v", captured)
	}
}

func TestOpenSession_ProviderFailure(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":       "failure",
			"errorCode":    "10051",
			"errorMessage": "card limit exceeded",
		})
	})

	_, err := gw.OpenSession(context.Background(), OpenSessionRequest{Price: decimal.Zero})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Code != "10051" || provErr.Message != "card limit exceeded" {
		t.Errorf("provider message not carried: %+v", provErr)
	}
}

func TestVerifySession_ReturnsOrderID(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != iyzicoRetrievePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req iyzicoRetrieveRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Token != "tok-1" {
			t.Errorf("unexpected token %q", req.Token)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":               "success",
			"paymentId":            "pp-9",
			"paymentTransactionId": "ptx-9",
			"basketId":             "42",
		})
	})

	ver, err := gw.VerifySession(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ver.BasketID != "42" || ver.ProviderPaymentID != "pp-9" || ver.ProviderTransactionID != "ptx-9" {
		t.Errorf("unexpected verification: %+v", ver)
	}
}

func TestVerifySession_MissingBasketID(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "paymentId": "pp-9"})
	})

	_, err := gw.VerifySession(context.Background(), "tok-1")
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError when order id is missing, got %v", err)
	}
}

func TestRefund(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != iyzicoRefundPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req iyzicoRefundRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.PaymentTransactionID != "ptx-9" || req.Price != "241.00" {
			t.Errorf("unexpected refund request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	})

	err := gw.Refund(context.Background(), RefundRequest{
		ConversationID: "42",
		TransactionID:  "ptx-9",
		Price:          decimal.RequireFromString("241.00"),
		Currency:       "TRY",
		IP:             "85.34.78.112",
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
}

func TestRefund_ProviderFailure(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "failure", "errorMessage": "transaction not found"})
	})

	err := gw.Refund(context.Background(), RefundRequest{TransactionID: "bogus", Price: decimal.Zero})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}
