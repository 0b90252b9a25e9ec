package pgstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/empowher/marketplace/internal/market"
)

const cartCols = `id, buyer_id, product_id, quantity, price_snapshot, created_at, updated_at`

func scanCartItem(row interface{ Scan(dest ...any) error }) (*market.CartItem, error) {
	var it market.CartItem
	err := row.Scan(&it.ID, &it.BuyerID, &it.ProductID, &it.Quantity,
		&it.PriceSnapshotCents, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// UpsertCartItem relies on the (buyer_id, product_id) unique constraint:
// a conflicting insert increments the existing quantity and leaves the
// original price snapshot alone.
func (s *Store) UpsertCartItem(ctx context.Context, buyerID, productID string, qty int, priceSnapshot int64) (*market.CartItem, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO cart_items(id, buyer_id, product_id, quantity, price_snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (buyer_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING `+cartCols,
		uuid.NewString(), buyerID, productID, qty, priceSnapshot)
	return scanCartItem(row)
}

func (s *Store) CartItems(ctx context.Context, buyerID string) ([]market.CartItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT c.id, c.buyer_id, c.product_id, c.quantity, c.price_snapshot, c.created_at, c.updated_at,
		       p.id, p.seller_id, p.name, p.description, p.image_url, p.price_cents, p.stock, p.is_active, p.created_at, p.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.buyer_id = $1
		ORDER BY c.created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.CartItem
	for rows.Next() {
		var it market.CartItem
		var p market.Product
		err := rows.Scan(&it.ID, &it.BuyerID, &it.ProductID, &it.Quantity, &it.PriceSnapshotCents, &it.CreatedAt, &it.UpdatedAt,
			&p.ID, &p.SellerID, &p.Name, &p.Description, &p.ImageURL, &p.PriceCents, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		it.Product = &p
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) SetCartQuantity(ctx context.Context, id, buyerID string, qty int) (*market.CartItem, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE cart_items SET quantity=$3, updated_at=now()
		WHERE id=$1 AND buyer_id=$2
		RETURNING `+cartCols, id, buyerID, qty)
	it, err := scanCartItem(row)
	if err != nil {
		return nil, notFound(err)
	}
	return it, nil
}

func (s *Store) DeleteCartItem(ctx context.Context, id, buyerID string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND buyer_id=$2`, id, buyerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}
