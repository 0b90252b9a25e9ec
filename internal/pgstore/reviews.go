package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/empowher/marketplace/internal/market"
)

// AddReview inserts the review and recomputes the product's rating
// aggregate in one transaction. The (product_id, user_id) unique
// constraint enforces one review per user.
func (s *Store) AddReview(ctx context.Context, rv *market.Review) (*market.Product, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, rv.ProductID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, market.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews(id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, market.ErrAlreadyReviewed
		}
		return nil, err
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products SET
			rating_avg   = (SELECT AVG(rating)::double precision FROM reviews WHERE product_id = $1),
			rating_count = (SELECT COUNT(*) FROM reviews WHERE product_id = $1),
			updated_at   = now()
		WHERE id = $1
		RETURNING `+productCols, rv.ProductID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) Reviews(ctx context.Context, productID string) ([]market.Review, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM reviews WHERE product_id=$1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Review
	for rows.Next() {
		var rv market.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
