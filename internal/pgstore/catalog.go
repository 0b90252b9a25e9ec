package pgstore

import (
	"context"

	"github.com/empowher/marketplace/internal/market"
)

const productCols = `id, seller_id, name, description, image_url, price_cents, stock, is_active, featured, rating_avg, rating_count, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (*market.Product, error) {
	var p market.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.ImageURL,
		&p.PriceCents, &p.Stock, &p.IsActive, &p.Featured, &p.RatingAvg, &p.RatingCount,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Product(ctx context.Context, id string) (*market.Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *Store) ActiveProducts(ctx context.Context) ([]market.Product, error) {
	return s.listProducts(ctx, `SELECT `+productCols+` FROM products WHERE is_active ORDER BY created_at DESC`)
}

func (s *Store) FeaturedProducts(ctx context.Context, limit int) ([]market.Product, error) {
	return s.listProducts(ctx, `
		SELECT `+productCols+` FROM products
		WHERE featured AND is_active
		ORDER BY created_at DESC LIMIT $1`, limit)
}

func (s *Store) ProductsBySeller(ctx context.Context, sellerID string) ([]market.Product, error) {
	return s.listProducts(ctx, `SELECT `+productCols+` FROM products WHERE seller_id=$1 ORDER BY created_at DESC`, sellerID)
}

func (s *Store) listProducts(ctx context.Context, sql string, args ...any) ([]market.Product, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, p *market.Product) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products(id, seller_id, name, description, image_url, price_cents, stock, is_active, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.SellerID, p.Name, p.Description, p.ImageURL, p.PriceCents, p.Stock, p.IsActive, p.Featured, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *Store) UpdateProduct(ctx context.Context, p *market.Product) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, image_url=$4, price_cents=$5, stock=$6, is_active=$7, featured=$8, updated_at=$9
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.ImageURL, p.PriceCents, p.Stock, p.IsActive, p.Featured, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}
