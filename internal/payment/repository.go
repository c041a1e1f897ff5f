package payment

import (
	"database/sql"
	"sync"
	"time"
)

type Repository interface {
	Create(p Payment) (Payment, error)
	GetByID(paymentID int) (Payment, error)
	GetByOrderID(orderID int) (Payment, error)
	SetSessionToken(paymentID int, token string) error
	// MarkFailed records a provider-reported failure; the payment row
	// is kept for audit.
	MarkFailed(paymentID int, message string) error
	// CompleteTx moves a PENDING payment to COMPLETED inside tx. It
	// returns false when the payment is no longer PENDING: duplicate
	// or late confirmations lose harmlessly, including after a refund.
	CompleteTx(tx *sql.Tx, paymentID int, providerPaymentID, providerTransactionID string) (bool, error)
	// RefundTx moves a COMPLETED payment to REFUNDED inside tx.
	RefundTx(tx *sql.Tx, paymentID int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.Mutex
	payments map[int]Payment
	nextID   int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{payments: make(map[int]Payment), nextID: 1}
}

func (r *InMemoryRepository) Create(p Payment) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.PaymentID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusPending
	}
	r.payments[p.PaymentID] = p
	return p, nil
}

func (r *InMemoryRepository) GetByID(paymentID int) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) GetByOrderID(orderID int) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return Payment{}, ErrNotFound
}

func (r *InMemoryRepository) SetSessionToken(paymentID int, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return ErrNotFound
	}
	p.ProviderToken = token
	p.UpdatedAt = time.Now().UTC()
	r.payments[paymentID] = p
	return nil
}

func (r *InMemoryRepository) MarkFailed(paymentID int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return ErrNotFound
	}
	p.Status = StatusFailed
	p.ErrorMessage = message
	p.UpdatedAt = time.Now().UTC()
	r.payments[paymentID] = p
	return nil
}

func (r *InMemoryRepository) CompleteTx(_ *sql.Tx, paymentID int, providerPaymentID, providerTransactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return false, ErrNotFound
	}
	if p.Status != StatusPending {
		return false, nil
	}
	p.Status = StatusCompleted
	p.ProviderPaymentID = providerPaymentID
	p.ProviderTransactionID = providerTransactionID
	p.UpdatedAt = time.Now().UTC()
	r.payments[paymentID] = p
	return true, nil
}

func (r *InMemoryRepository) RefundTx(_ *sql.Tx, paymentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return ErrNotFound
	}
	p.Status = StatusRefunded
	p.UpdatedAt = time.Now().UTC()
	r.payments[paymentID] = p
	return nil
}
