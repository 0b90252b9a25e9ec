package pgstore

import (
	"context"

	"github.com/empowher/marketplace/internal/market"
)

const notifCols = `id, user_id, type, title, message, related_kind, related_id, is_read, created_at`

func scanNotification(row interface{ Scan(dest ...any) error }) (*market.Notification, error) {
	var n market.Notification
	var kind string
	var relID *string
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &kind, &relID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if relID != nil {
		n.Related = &market.RelatedRef{Kind: market.RelatedKind(kind), ID: *relID}
	}
	return &n, nil
}

func (s *Store) Notifications(ctx context.Context, userID string, limit int) ([]market.Notification, int, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+notifCols+` FROM notifications
		WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []market.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var unread int
	err = s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND NOT is_read`, userID).Scan(&unread)
	if err != nil {
		return nil, 0, err
	}
	return out, unread, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) (*market.Notification, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id=$1 AND user_id=$2
		RETURNING `+notifCols, id, userID)
	n, err := scanNotification(row)
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id=$1 AND NOT is_read`, userID)
	return err
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM notifications WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *Store) ClearNotifications(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM notifications WHERE user_id=$1`, userID)
	return err
}
