package cart

import (
	"database/sql"
	"errors"
	"sync"
)

var (
	ErrNotFound        = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

type Repository interface {
	// GetCart returns the user's cart, creating an empty one if the
	// user has none yet.
	GetCart(userID int) (Cart, error)
	// AddItem merges qty into an existing line for the variant or
	// appends a new line.
	AddItem(userID, variantID, qty int) (Cart, error)
	// SetItemQuantity replaces the quantity of an existing line owned
	// by the user.
	SetItemQuantity(userID, cartItemID, qty int) (Cart, error)
	// RemoveItem deletes a line owned by the user.
	RemoveItem(userID, cartItemID int) (Cart, error)
	// GetItem resolves a single line owned by the user.
	GetItem(userID, cartItemID int) (CartItem, error)
	// RemoveItemsTx deletes the given lines inside the checkout
	// transaction. Only the materialized lines go; a line added while
	// the checkout is running stays in place.
	RemoveItemsTx(tx *sql.Tx, userID int, cartItemIDs []int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.Mutex
	carts  map[int]*Cart // keyed by userID
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]*Cart), nextID: 1}
}

func (r *InMemoryRepository) getOrCreate(userID int) *Cart {
	c, ok := r.carts[userID]
	if !ok {
		c = &Cart{CartID: userID, UserID: userID}
		r.carts[userID] = c
	}
	return c
}

func (r *InMemoryRepository) GetCart(userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.getOrCreate(userID), nil
}

func (r *InMemoryRepository) AddItem(userID, variantID, qty int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getOrCreate(userID)
	for i, item := range c.Items {
		if item.VariantID == variantID {
			c.Items[i].Quantity += qty
			return *c, nil
		}
	}
	c.Items = append(c.Items, CartItem{CartItemID: r.nextID, VariantID: variantID, Quantity: qty})
	r.nextID++
	return *c, nil
}

func (r *InMemoryRepository) SetItemQuantity(userID, cartItemID, qty int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getOrCreate(userID)
	for i, item := range c.Items {
		if item.CartItemID == cartItemID {
			c.Items[i].Quantity = qty
			return *c, nil
		}
	}
	return Cart{}, ErrNotFound
}

func (r *InMemoryRepository) RemoveItem(userID, cartItemID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getOrCreate(userID)
	for i, item := range c.Items {
		if item.CartItemID == cartItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return *c, nil
		}
	}
	return Cart{}, ErrNotFound
}

func (r *InMemoryRepository) GetItem(userID, cartItemID int) (CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getOrCreate(userID)
	for _, item := range c.Items {
		if item.CartItemID == cartItemID {
			return item, nil
		}
	}
	return CartItem{}, ErrNotFound
}

func (r *InMemoryRepository) RemoveItemsTx(_ *sql.Tx, userID int, cartItemIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil
	}
	drop := make(map[int]bool, len(cartItemIDs))
	for _, id := range cartItemIDs {
		drop[id] = true
	}
	kept := c.Items[:0]
	for _, item := range c.Items {
		if !drop[item.CartItemID] {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	return nil
}
