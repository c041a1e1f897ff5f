package catalog

import (
	"database/sql"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("variant not found")
	// ErrInsufficientStock is returned when a debit would drive a
	// stock counter negative. The caller decides whether to roll back
	// a wider transaction.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	List() ([]Variant, error)
	GetVariant(variantID int) (Variant, error)
	// DebitStockTx decrements stock by qty inside tx only when enough
	// stock is available; check and decrement are one statement so
	// concurrent debits can never oversell.
	DebitStockTx(tx *sql.Tx, variantID, qty int) error
	// CreditStockTx restores stock inside tx. No upper bound: stock is
	// only ever credited back what was debited.
	CreditStockTx(tx *sql.Tx, variantID, qty int) error
}

// InMemoryRepository is used for tests and local scenarios. The Tx
// methods ignore the transaction handle and mutate under a mutex.
type InMemoryRepository struct {
	mu       sync.Mutex
	variants map[int]Variant
}

func NewInMemoryRepository(seed []Variant) *InMemoryRepository {
	r := &InMemoryRepository{variants: make(map[int]Variant, len(seed))}
	for _, v := range seed {
		r.variants[v.VariantID] = v
	}
	return r
}

func (r *InMemoryRepository) List() ([]Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Variant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	return out, nil
}

func (r *InMemoryRepository) GetVariant(variantID int) (Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok {
		return Variant{}, ErrNotFound
	}
	return v, nil
}

func (r *InMemoryRepository) DebitStockTx(_ *sql.Tx, variantID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok {
		return ErrNotFound
	}
	if v.Stock < qty {
		return ErrInsufficientStock
	}
	v.Stock -= qty
	r.variants[variantID] = v
	return nil
}

func (r *InMemoryRepository) CreditStockTx(_ *sql.Tx, variantID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok {
		return ErrNotFound
	}
	v.Stock += qty
	r.variants[variantID] = v
	return nil
}
