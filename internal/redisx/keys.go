package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{order_id} -> {"status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Cached unread notification count: notif_unread:{user_id} -> int
	KeyUnreadCount = "notif_unread:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLUnreadCount = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
