package settlement

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/oguzkse/bazaar-backend/internal/catalog"
)

func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				claims := jwt.MapClaims{"user_id": id}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestCheckout_RequiresAuth(t *testing.T) {
	f := newFixture(t, nil)
	app := makeApp(NewHandler(f.svc))

	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"shippingAddressId":10,"billingAddressId":11}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated checkout, got %d", res.StatusCode)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	f := newFixture(t, []catalog.Variant{
		{VariantID: 7, ProductName: "Mama 5kg", Price: price("120.50"), Stock: 5},
	})
	f.carts.AddItem(1, 7, 3)
	app := makeApp(NewHandler(f.svc))

	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"shippingAddressId":10,"billingAddressId":11}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, body)
	}

	var out struct {
		Success bool `json:"success"`
		Order   struct {
			OrderID int    `json:"orderId"`
			Status  string `json:"status"`
		} `json:"order"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Success || out.Order.Status != "PENDING" {
		t.Errorf("unexpected response: %+v", out)
	}

	// the empty cart cannot be checked out again
	req2 := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"shippingAddressId":10,"billingAddressId":11}`))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-User-ID", "1")
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", res2.StatusCode)
	}
}

func TestCallback_MissingToken(t *testing.T) {
	f := newFixture(t, nil)
	app := makeApp(NewHandler(f.svc))

	req := httptest.NewRequest("POST", "/payment/callback", nil)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", res.StatusCode)
	}
}

func TestSettlementFlowOverHTTP(t *testing.T) {
	f := newFixture(t, []catalog.Variant{
		{VariantID: 7, ProductName: "Mama 5kg", Price: price("120.50"), Stock: 5},
	})
	f.carts.AddItem(1, 7, 3)
	app := makeApp(NewHandler(f.svc))

	// checkout
	req := httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{"shippingAddressId":10,"billingAddressId":11}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", res.StatusCode)
	}
	var checkoutOut struct {
		Order struct {
			OrderID int `json:"orderId"`
		} `json:"order"`
	}
	json.NewDecoder(res.Body).Decode(&checkoutOut)
	orderID := checkoutOut.Order.OrderID

	// initiate payment
	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/orders/%d/payment", orderID), nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("initiate: expected 200, got %d: %s", res.StatusCode, body)
	}
	var initOut struct {
		Token              string `json:"token"`
		PaymentID          int    `json:"paymentId"`
		PaymentFormContent string `json:"paymentFormContent"`
	}
	json.NewDecoder(res.Body).Decode(&initOut)
	if initOut.Token == "" || initOut.PaymentFormContent == "" {
		t.Fatalf("initiate response incomplete: %+v", initOut)
	}

	// provider callback
	form := url.Values{"token": {initOut.Token}}
	req = httptest.NewRequest("POST", "/payment/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("callback: expected 200, got %d: %s", res.StatusCode, body)
	}

	// duplicate callback reports already processed, not an error
	req = httptest.NewRequest("POST", "/payment/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("duplicate callback: expected 200, got %d", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "already processed") {
		t.Errorf("duplicate callback should report already processed: %s", body)
	}

	// payment record is visible to the owner
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/orders/%d/payment", orderID), nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("get payment: expected 200, got %d", res.StatusCode)
	}
	body, _ = io.ReadAll(res.Body)
	if !strings.Contains(string(body), `"status":"COMPLETED"`) {
		t.Errorf("expected COMPLETED payment, got %s", body)
	}

	// cancel by another user is forbidden and makes no refund call
	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/payments/%d/cancel", initOut.PaymentID), nil)
	req.Header.Set("X-User-ID", "2")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("foreign cancel: expected 403, got %d", res.StatusCode)
	}
	if f.gateway.refundCalls != 0 {
		t.Error("foreign cancel must not reach the provider")
	}

	// cancel by the owner refunds and cancels
	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/payments/%d/cancel", initOut.PaymentID), nil)
	req.Header.Set("X-User-ID", "1")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("cancel: expected 200, got %d: %s", res.StatusCode, body)
	}

	v, _ := f.stock.GetVariant(7)
	if v.Stock != 5 {
		t.Errorf("refund must restore stock to 5, got %d", v.Stock)
	}
}
