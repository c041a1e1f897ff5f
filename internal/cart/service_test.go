package cart

import (
	"errors"
	"testing"

	"github.com/oguzkse/bazaar-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

func newTestService(variants []catalog.Variant) (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	return NewService(repo, catalog.NewService(catalog.NewInMemoryRepository(variants))), repo
}

func TestAddItem_RequiresPositiveQuantity(t *testing.T) {
	svc, _ := newTestService([]catalog.Variant{{VariantID: 1, Stock: 10}})

	if _, err := svc.AddItem(1, 1, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for qty 0, got %v", err)
	}
	if _, err := svc.AddItem(1, 1, -2); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for negative qty, got %v", err)
	}
}

func TestAddItem_MergesQuantities(t *testing.T) {
	svc, _ := newTestService([]catalog.Variant{{VariantID: 1, Stock: 10}})

	if _, err := svc.AddItem(1, 1, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	c, err := svc.AddItem(1, 1, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", c.Items[0].Quantity)
	}
}

func TestAddItem_NoStockCheckAtAddTime(t *testing.T) {
	// stock is validated at update and checkout, not at add
	svc, _ := newTestService([]catalog.Variant{{VariantID: 1, Stock: 1}})

	c, err := svc.AddItem(1, 1, 50)
	if err != nil {
		t.Fatalf("add beyond stock must succeed: %v", err)
	}
	if c.Items[0].Quantity != 50 {
		t.Errorf("expected quantity 50, got %d", c.Items[0].Quantity)
	}
}

func TestAddItem_UnknownVariant(t *testing.T) {
	svc, _ := newTestService(nil)

	if _, err := svc.AddItem(1, 99, 1); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected catalog.ErrNotFound, got %v", err)
	}
}

func TestUpdateItem_RemovesLineOnZeroQuantity(t *testing.T) {
	svc, _ := newTestService([]catalog.Variant{{VariantID: 1, Stock: 10}})

	c, _ := svc.AddItem(1, 1, 2)
	itemID := c.Items[0].CartItemID

	c, err := svc.UpdateItem(1, itemID, 0)
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if len(c.Items) != 0 {
		t.Errorf("expected line removed, got %d items", len(c.Items))
	}
}

func TestUpdateItem_ChecksStock(t *testing.T) {
	svc, repo := newTestService([]catalog.Variant{
		{VariantID: 1, Price: decimal.NewFromInt(5), Stock: 3},
	})

	c, _ := svc.AddItem(1, 1, 2)
	itemID := c.Items[0].CartItemID

	if _, err := svc.UpdateItem(1, itemID, 7); !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected catalog.ErrInsufficientStock, got %v", err)
	}

	// cart must be unchanged after the rejected update
	c, _ = repo.GetCart(1)
	if c.Items[0].Quantity != 2 {
		t.Errorf("rejected update must leave quantity 2, got %d", c.Items[0].Quantity)
	}

	if _, err := svc.UpdateItem(1, itemID, 3); err != nil {
		t.Fatalf("update within stock must succeed: %v", err)
	}
}

func TestUpdateItem_UnknownLine(t *testing.T) {
	svc, _ := newTestService([]catalog.Variant{{VariantID: 1, Stock: 10}})

	if _, err := svc.UpdateItem(1, 99, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
