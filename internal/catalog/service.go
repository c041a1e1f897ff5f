package catalog

// Service exposes the catalog read model.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List() ([]Variant, error) {
	return s.repo.List()
}

func (s *Service) GetVariant(variantID int) (Variant, error) {
	if variantID <= 0 {
		return Variant{}, ErrNotFound
	}
	return s.repo.GetVariant(variantID)
}
