package address

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	GetAddresses(userID int) ([]Address, error)
	// GetByIDForUser resolves an address only when it belongs to the
	// given user; checkout relies on this ownership check.
	GetByIDForUser(userID, addressID int) (Address, error)
	AddAddress(userID int, addressType, street, city, postalCode string) (Address, error)
	UpdateAddress(userID, addressID int, addressType, street, city, postalCode string) (Address, error)
	DeleteAddress(userID, addressID int) error
}

// InMemoryRepository for tests
type InMemoryRepository struct {
	mu     sync.RWMutex
	data   map[int][]Address // keyed by userID
	nextID int
}

func NewInMemoryRepository(seed map[int][]Address) *InMemoryRepository {
	r := &InMemoryRepository{data: seed, nextID: 1}
	if r.data == nil {
		r.data = make(map[int][]Address)
	}
	for _, addrs := range r.data {
		for _, a := range addrs {
			if a.AddressID >= r.nextID {
				r.nextID = a.AddressID + 1
			}
		}
	}
	return r
}

func (r *InMemoryRepository) GetAddresses(userID int) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Address(nil), r.data[userID]...), nil
}

func (r *InMemoryRepository) GetByIDForUser(userID, addressID int) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.data[userID] {
		if a.AddressID == addressID {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) AddAddress(userID int, addressType, street, city, postalCode string) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := Address{
		AddressID:   r.nextID,
		UserID:      userID,
		AddressType: addressType,
		Street:      street,
		City:        city,
		PostalCode:  postalCode,
	}
	r.nextID++
	r.data[userID] = append(r.data[userID], a)
	return a, nil
}

func (r *InMemoryRepository) UpdateAddress(userID, addressID int, addressType, street, city, postalCode string) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.data[userID] {
		if a.AddressID == addressID {
			a.AddressType = addressType
			a.Street = street
			a.City = city
			a.PostalCode = postalCode
			r.data[userID][i] = a
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func (r *InMemoryRepository) DeleteAddress(userID, addressID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := r.data[userID]
	for i, a := range addrs {
		if a.AddressID == addressID {
			r.data[userID] = append(addrs[:i], addrs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
