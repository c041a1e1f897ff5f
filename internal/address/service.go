package address

import "errors"

// Service orchestrates address book operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetAddresses(userID int) ([]Address, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetAddresses(userID)
}

func (s *Service) GetByIDForUser(userID, addressID int) (Address, error) {
	if userID <= 0 || addressID <= 0 {
		return Address{}, ErrNotFound
	}
	return s.repo.GetByIDForUser(userID, addressID)
}

func (s *Service) AddAddress(userID int, addressType, street, city, postalCode string) (Address, error) {
	if userID <= 0 {
		return Address{}, ErrNotFound
	}
	if street == "" || city == "" {
		return Address{}, errors.New("street and city are required")
	}
	if addressType != TypeShipping && addressType != TypeBilling {
		addressType = TypeShipping
	}
	return s.repo.AddAddress(userID, addressType, street, city, postalCode)
}

func (s *Service) UpdateAddress(userID, addressID int, addressType, street, city, postalCode string) (Address, error) {
	if userID <= 0 || addressID <= 0 {
		return Address{}, ErrNotFound
	}
	if street == "" || city == "" {
		return Address{}, errors.New("street and city are required")
	}
	if addressType != TypeShipping && addressType != TypeBilling {
		addressType = TypeShipping
	}
	return s.repo.UpdateAddress(userID, addressID, addressType, street, city, postalCode)
}

func (s *Service) DeleteAddress(userID, addressID int) error {
	if userID <= 0 || addressID <= 0 {
		return ErrNotFound
	}
	return s.repo.DeleteAddress(userID, addressID)
}
