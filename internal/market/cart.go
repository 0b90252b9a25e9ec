package market

import (
	"context"
	"fmt"
)

// AddToCart inserts a cart row or bumps the quantity of an existing
// (buyer, product) row. The price snapshot is taken from the product at
// first add. Stock is not checked here; availability is enforced at
// checkout only.
func (s *Service) AddToCart(ctx context.Context, buyer Actor, productID string, qty int) (*CartItem, error) {
	if qty < 1 {
		return nil, Invalidf("quantity must be at least 1")
	}
	p, err := s.Store.Product(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	return s.Store.UpsertCartItem(ctx, buyer.UserID, p.ID, qty, p.PriceCents)
}

func (s *Service) Cart(ctx context.Context, buyer Actor) ([]CartItem, error) {
	return s.Store.CartItems(ctx, buyer.UserID)
}

// SetCartQuantity overwrites the quantity of the buyer's own row.
func (s *Service) SetCartQuantity(ctx context.Context, buyer Actor, itemID string, qty int) (*CartItem, error) {
	if qty < 1 {
		return nil, Invalidf("Quantity must be >= 1")
	}
	return s.Store.SetCartQuantity(ctx, itemID, buyer.UserID, qty)
}

func (s *Service) RemoveCartItem(ctx context.Context, buyer Actor, itemID string) error {
	return s.Store.DeleteCartItem(ctx, itemID, buyer.UserID)
}
