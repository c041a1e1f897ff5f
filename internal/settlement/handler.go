package settlement

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/oguzkse/bazaar-backend/internal/address"
	"github.com/oguzkse/bazaar-backend/internal/catalog"
	"github.com/oguzkse/bazaar-backend/internal/order"
	"github.com/oguzkse/bazaar-backend/internal/payment"
	"github.com/oguzkse/bazaar-backend/internal/user"
)

// Handler exposes the settlement flow over HTTP. The provider callback
// is the only public route; everything else requires a logged-in user.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/payment/callback", h.paymentCallback)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
	app.Post("/api/v1/orders/:id<[0-9]+>/payment", h.initiatePayment)
	app.Get("/api/v1/orders/:id<[0-9]+>/payment", h.getPayment)
	app.Post("/api/v1/payments/:id<[0-9]+>/cancel", h.cancelPayment)
}

type checkoutRequest struct {
	ShippingAddressID int `json:"shippingAddressId"`
	BillingAddressID  int `json:"billingAddressId"`
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(checkoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	ord, err := h.service.Checkout(c.Context(), userID, payload.ShippingAddressID, payload.BillingAddressID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "cart is empty"})
		case errors.Is(err, address.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "address not found"})
		case errors.Is(err, catalog.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
		case errors.Is(err, catalog.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "variant not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "order created successfully",
		"order":   ord,
	})
}

func (h *Handler) initiatePayment(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orderID, _ := strconv.Atoi(c.Params("id"))

	res, err := h.service.Initiate(c.Context(), userID, orderID, c.IP())
	if err != nil {
		var provErr *payment.ProviderError
		switch {
		case errors.Is(err, order.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "order not found"})
		case errors.Is(err, payment.ErrAlreadyPaid):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "payment has already been completed for this order"})
		case errors.As(err, &provErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": provErr.Message})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"paymentId":          res.Payment.PaymentID,
		"token":              res.Payment.ProviderToken,
		"paymentFormContent": res.FormContent,
		"tokenExpireTime":    res.TokenExpireIn,
	})
}

func (h *Handler) getPayment(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orderID, _ := strconv.Atoi(c.Params("id"))

	p, err := h.service.PaymentForOrder(userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		case errors.Is(err, payment.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "payment not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(p)
}

// paymentCallback is the provider's asynchronous notification. It may
// arrive any number of times; the outcome is always confirmed with the
// provider before any local state changes.
func (h *Handler) paymentCallback(c *fiber.Ctx) error {
	token := c.FormValue("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "no payment token provided"})
	}

	res, err := h.service.Confirm(c.Context(), token)
	if err != nil {
		var provErr *payment.ProviderError
		switch {
		case errors.Is(err, order.ErrNotFound), errors.Is(err, payment.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "order not found"})
		case errors.As(err, &provErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": provErr.Message})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
	}

	if res.AlreadyProcessed {
		return c.JSON(fiber.Map{"success": true, "message": "payment already processed", "orderId": res.OrderID})
	}
	return c.JSON(fiber.Map{"success": true, "message": "payment completed", "orderId": res.OrderID})
}

func (h *Handler) cancelPayment(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	paymentID, _ := strconv.Atoi(c.Params("id"))

	if err := h.service.Cancel(c.Context(), userID, paymentID, c.IP()); err != nil {
		var provErr *payment.ProviderError
		switch {
		case errors.Is(err, payment.ErrNotFound), errors.Is(err, order.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "payment not found"})
		case errors.Is(err, payment.ErrNotOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "payment does not belong to this user"})
		case errors.Is(err, ErrCancellationWindowExpired):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "cancellation window has expired"})
		case errors.Is(err, ErrNotCancelable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "order can no longer be canceled"})
		case errors.Is(err, payment.ErrNoTransactionID):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "payment has no provider transaction id"})
		case errors.As(err, &provErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": provErr.Message})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "payment refunded and order canceled"})
}
