// Package pgstore implements market.Store on postgres via pgx.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/empowher/marketplace/internal/market"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextSequence is a single atomic increment-and-fetch; concurrent callers
// always receive distinct, strictly increasing values.
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	var v int64
	err := s.DB.QueryRow(ctx, `
		INSERT INTO sequences(name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, name).Scan(&v)
	return v, err
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return market.ErrNotFound
	}
	return err
}

func insertNotifications(ctx context.Context, tx pgx.Tx, ns []market.Notification) error {
	for _, n := range ns {
		var kind string
		var relID *string
		if n.Related != nil {
			kind = string(n.Related.Kind)
			relID = &n.Related.ID
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications(id, user_id, type, title, message, related_kind, related_id, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			n.ID, n.UserID, n.Type, n.Title, n.Message, kind, relID, n.IsRead, n.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}
