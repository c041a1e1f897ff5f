package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IyzicoGateway talks to the iyzico checkout-form REST API.
type IyzicoGateway struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
}

const (
	iyzicoInitializePath = "/payment/iyzipos/checkoutform/initialize/auth/ecom"
	iyzicoRetrievePath   = "/payment/iyzipos/checkoutform/auth/ecom/detail"
	iyzicoRefundPath     = "/payment/refund"

	// provider checkout tokens are valid for 30 minutes
	iyzicoTokenExpireSeconds = 1800
)

func NewIyzicoGateway(baseURL, apiKey, secretKey string) *IyzicoGateway {
	return &IyzicoGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type iyzicoBuyer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Surname             string `json:"surname"`
	Email               string `json:"email"`
	IdentityNumber      string `json:"identityNumber"`
	RegistrationAddress string `json:"registrationAddress"`
	City                string `json:"city"`
	Country             string `json:"country"`
	IP                  string `json:"ip"`
}

type iyzicoAddress struct {
	ContactName string `json:"contactName"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Address     string `json:"address"`
}

type iyzicoBasketItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2,omitempty"`
	ItemType  string `json:"itemType"`
	Price     string `json:"price"`
}

type iyzicoInitializeRequest struct {
	Locale              string             `json:"locale"`
	ConversationID      string             `json:"conversationId"`
	Price               string             `json:"price"`
	PaidPrice           string             `json:"paidPrice"`
	Currency            string             `json:"currency"`
	BasketID            string             `json:"basketId"`
	PaymentGroup        string             `json:"paymentGroup"`
	CallbackURL         string             `json:"callbackUrl"`
	EnabledInstallments []string           `json:"enabledInstallments"`
	Buyer               iyzicoBuyer        `json:"buyer"`
	ShippingAddress     iyzicoAddress      `json:"shippingAddress"`
	BillingAddress      iyzicoAddress      `json:"billingAddress"`
	BasketItems         []iyzicoBasketItem `json:"basketItems"`
}

type iyzicoInitializeResponse struct {
	Status              string `json:"status"`
	Token               string `json:"token"`
	CheckoutFormContent string `json:"checkoutFormContent"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

type iyzicoRetrieveRequest struct {
	Locale string `json:"locale"`
	Token  string `json:"token"`
}

type iyzicoRetrieveResponse struct {
	Status               string `json:"status"`
	PaymentStatus        string `json:"paymentStatus"`
	PaymentID            string `json:"paymentId"`
	PaymentTransactionID string `json:"paymentTransactionId"`
	BasketID             string `json:"basketId"`
	ErrorCode            string `json:"errorCode"`
	ErrorMessage         string `json:"errorMessage"`
}

type iyzicoRefundRequest struct {
	Locale               string `json:"locale"`
	ConversationID       string `json:"conversationId"`
	PaymentTransactionID string `json:"paymentTransactionId"`
	Price                string `json:"price"`
	Currency             string `json:"currency"`
	IP                   string `json:"ip"`
}

type iyzicoRefundResponse struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (g *IyzicoGateway) OpenSession(ctx context.Context, req OpenSessionRequest) (Session, error) {
	body := iyzicoInitializeRequest{
		Locale:              "tr",
		ConversationID:      req.ConversationID,
		Price:               req.Price.StringFixed(2),
		PaidPrice:           req.Price.StringFixed(2),
		Currency:            req.Currency,
		BasketID:            req.BasketID,
		PaymentGroup:        "PRODUCT",
		CallbackURL:         req.CallbackURL,
		EnabledInstallments: []string{"2", "3", "6", "9"},
		Buyer: iyzicoBuyer{
			ID:                  req.Buyer.ID,
			Name:                req.Buyer.Name,
			Surname:             req.Buyer.Surname,
			Email:               req.Buyer.Email,
			IdentityNumber:      "11111111111",
			RegistrationAddress: req.Buyer.Address,
			City:                req.Buyer.City,
			Country:             "Turkey",
			IP:                  req.Buyer.IP,
		},
		ShippingAddress: iyzicoAddress{
			ContactName: req.ShippingAddress.ContactName,
			City:        req.ShippingAddress.City,
			Country:     req.ShippingAddress.Country,
			Address:     req.ShippingAddress.Address,
		},
		BillingAddress: iyzicoAddress{
			ContactName: req.BillingAddress.ContactName,
			City:        req.BillingAddress.City,
			Country:     req.BillingAddress.Country,
			Address:     req.BillingAddress.Address,
		},
	}
	for _, item := range req.BasketItems {
		body.BasketItems = append(body.BasketItems, iyzicoBasketItem{
			ID:        item.ID,
			Name:      item.Name,
			Category1: item.Category1,
			Category2: item.Category2,
			ItemType:  item.ItemType,
			Price:     item.Price.StringFixed(2),
		})
	}

	var resp iyzicoInitializeResponse
	if err := g.post(ctx, iyzicoInitializePath, body, &resp); err != nil {
		return Session{}, err
	}
	if resp.Status != "success" {
		return Session{}, &ProviderError{Code: resp.ErrorCode, Message: orDefault(resp.ErrorMessage, "payment failed")}
	}

	return Session{Token: resp.Token, FormContent: resp.CheckoutFormContent, TokenExpireIn: iyzicoTokenExpireSeconds}, nil
}

func (g *IyzicoGateway) VerifySession(ctx context.Context, token string) (Verification, error) {
	var resp iyzicoRetrieveResponse
	if err := g.post(ctx, iyzicoRetrievePath, iyzicoRetrieveRequest{Locale: "tr", Token: token}, &resp); err != nil {
		return Verification{}, err
	}
	if resp.Status != "success" {
		return Verification{}, &ProviderError{Code: resp.ErrorCode, Message: orDefault(resp.ErrorMessage, "payment verification failed")}
	}
	if resp.BasketID == "" {
		return Verification{}, &ProviderError{Message: "order id not found in provider response"}
	}

	return Verification{
		Status:                resp.Status,
		ProviderPaymentID:     resp.PaymentID,
		ProviderTransactionID: resp.PaymentTransactionID,
		BasketID:              resp.BasketID,
	}, nil
}

func (g *IyzicoGateway) Refund(ctx context.Context, req RefundRequest) error {
	body := iyzicoRefundRequest{
		Locale:               "tr",
		ConversationID:       req.ConversationID,
		PaymentTransactionID: req.TransactionID,
		Price:                req.Price.StringFixed(2),
		Currency:             req.Currency,
		IP:                   req.IP,
	}

	var resp iyzicoRefundResponse
	if err := g.post(ctx, iyzicoRefundPath, body, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return &ProviderError{Code: resp.ErrorCode, Message: orDefault(resp.ErrorMessage, "refund failed")}
	}
	return nil
}

func (g *IyzicoGateway) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	randomKey := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-iyzi-rnd", randomKey)
	req.Header.Set("Authorization", g.authHeader(randomKey, path, payload))

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("provider returned malformed response: %w", err)
	}
	return nil
}

// authHeader builds the IYZWSv2 authorization value: an HMAC-SHA256
// over the random key, the request path and the raw payload.
func (g *IyzicoGateway) authHeader(randomKey, path string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write([]byte(randomKey + path))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("IYZWSv2 apiKey:%s&randomKey:%s&signature:%s", g.apiKey, randomKey, signature)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
