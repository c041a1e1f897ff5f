package order

// Service provides order queries. Order creation happens only through
// the settlement checkout, never here.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByUser(userID int) ([]Order, error) {
	if userID <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.ListByUser(userID)
}

func (s *Service) GetByIDForUser(userID, orderID int) (Order, error) {
	if userID <= 0 || orderID <= 0 {
		return Order{}, ErrNotFound
	}
	return s.repo.GetByIDForUser(userID, orderID)
}
