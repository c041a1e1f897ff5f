package order

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// CreateTx persists the order and its items inside the checkout
	// transaction and returns the order with generated ids.
	CreateTx(tx *sql.Tx, ord Order) (Order, error)
	GetByID(orderID int) (Order, error)
	GetByIDForUser(userID, orderID int) (Order, error)
	ListByUser(userID int) ([]Order, error)
	// SetStatusTx updates the order status inside a settlement
	// transaction.
	SetStatusTx(tx *sql.Tx, orderID int, status string) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.Mutex
	orders     map[int]Order
	nextID     int
	nextItemID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[int]Order), nextID: 1, nextItemID: 1}
}

func (r *InMemoryRepository) CreateTx(_ *sql.Tx, ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord.OrderID = r.nextID
	r.nextID++
	if ord.CreatedAt.IsZero() {
		ord.CreatedAt = time.Now().UTC()
	}
	for i := range ord.Items {
		ord.Items[i].OrderItemID = r.nextItemID
		ord.Items[i].OrderID = ord.OrderID
		r.nextItemID++
	}
	r.orders[ord.OrderID] = ord
	return ord, nil
}

func (r *InMemoryRepository) GetByID(orderID int) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (r *InMemoryRepository) GetByIDForUser(userID, orderID int) (Order, error) {
	ord, err := r.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if ord.UserID != userID {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (r *InMemoryRepository) ListByUser(userID int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, ord := range r.orders {
		if ord.UserID == userID {
			out = append(out, ord)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) SetStatusTx(_ *sql.Tx, orderID int, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	ord.Status = status
	r.orders[orderID] = ord
	return nil
}
