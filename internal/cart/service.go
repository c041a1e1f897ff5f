package cart

import (
	"github.com/oguzkse/bazaar-backend/internal/catalog"
)

// VariantGetter is the slice of the catalog the cart needs: stock and
// existence checks when updating a line.
type VariantGetter interface {
	GetVariant(variantID int) (catalog.Variant, error)
}

// Service holds cart business rules. Adding does not check stock
// (availability can change before checkout anyway); updating to a
// positive quantity does.
type Service struct {
	repo     Repository
	variants VariantGetter
}

func NewService(repo Repository, variants VariantGetter) *Service {
	return &Service{repo: repo, variants: variants}
}

func (s *Service) GetCart(userID int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrNotFound
	}
	return s.repo.GetCart(userID)
}

func (s *Service) AddItem(userID, variantID, qty int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrNotFound
	}
	if qty <= 0 {
		return Cart{}, ErrInvalidQuantity
	}
	if _, err := s.variants.GetVariant(variantID); err != nil {
		return Cart{}, err
	}
	return s.repo.AddItem(userID, variantID, qty)
}

// UpdateItem sets the quantity of a cart line. qty <= 0 removes the
// line; a positive qty must be coverable by current stock, otherwise
// the cart is left unchanged.
func (s *Service) UpdateItem(userID, cartItemID, qty int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrNotFound
	}
	if qty <= 0 {
		return s.repo.RemoveItem(userID, cartItemID)
	}

	item, err := s.repo.GetItem(userID, cartItemID)
	if err != nil {
		return Cart{}, err
	}
	v, err := s.variants.GetVariant(item.VariantID)
	if err != nil {
		return Cart{}, err
	}
	if v.Stock < qty {
		return Cart{}, catalog.ErrInsufficientStock
	}

	return s.repo.SetItemQuantity(userID, cartItemID, qty)
}
