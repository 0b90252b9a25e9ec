package market

import "context"

// NotificationFeed is a recipient's notification page plus unread count.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

const notificationPageSize = 50

func (s *Service) NotificationsFor(ctx context.Context, actor Actor) (*NotificationFeed, error) {
	notifs, unread, err := s.Store.Notifications(ctx, actor.UserID, notificationPageSize)
	if err != nil {
		return nil, err
	}
	return &NotificationFeed{Notifications: notifs, UnreadCount: unread}, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id string) (*Notification, error) {
	return s.Store.MarkNotificationRead(ctx, id, actor.UserID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) error {
	return s.Store.MarkAllNotificationsRead(ctx, actor.UserID)
}

func (s *Service) DeleteNotification(ctx context.Context, actor Actor, id string) error {
	return s.Store.DeleteNotification(ctx, id, actor.UserID)
}

func (s *Service) ClearNotifications(ctx context.Context, actor Actor) error {
	return s.Store.ClearNotifications(ctx, actor.UserID)
}
