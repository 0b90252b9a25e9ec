package market

import (
	"context"
	"time"
)

// StatusUpdate carries the optional fields a status transition may set.
type StatusUpdate struct {
	TrackingNumber *string
	DeliveredAt    *time.Time
	PaymentRef     *string
	PaymentStatus  *PaymentStatus
}

// NotifyFunc composes the notification rows a mutation should persist.
// It runs inside the store transaction, after the order ref is known and
// with the exhausted products (stock driven to zero) resolved, so the
// rows commit or roll back together with the mutation itself.
type NotifyFunc func(o *Order, exhausted []Product) []Notification

// Store is the persistence contract. Implementations must make the
// operations documented as atomic behave atomically under concurrent
// callers; the service layer never compensates for partial writes.
type Store interface {
	// NextSequence atomically increments and returns the named counter.
	// Two concurrent calls never observe the same value. This is the
	// contract CreateOrder's in-transaction numbering implements; callers
	// needing a counter outside an order write use it directly.
	NextSequence(ctx context.Context, name string) (int64, error)

	// Catalog.
	Product(ctx context.Context, id string) (*Product, error)
	ActiveProducts(ctx context.Context) ([]Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]Product, error)
	ProductsBySeller(ctx context.Context, sellerID string) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error

	// Reviews. AddReview inserts the review and recomputes the product's
	// rating average and count in the same transaction; a second review by
	// the same user for the same product returns ErrAlreadyReviewed.
	AddReview(ctx context.Context, rv *Review) (*Product, error)
	Reviews(ctx context.Context, productID string) ([]Review, error)

	// Cart. UpsertCartItem inserts a row or, when (buyer, product) already
	// exists, increments its quantity; the price snapshot is written only
	// on insert. SetCartQuantity and DeleteCartItem return ErrNotFound for
	// rows that do not exist or belong to another buyer.
	UpsertCartItem(ctx context.Context, buyerID, productID string, qty int, priceSnapshot int64) (*CartItem, error)
	CartItems(ctx context.Context, buyerID string) ([]CartItem, error)
	SetCartQuantity(ctx context.Context, id, buyerID string, qty int) (*CartItem, error)
	DeleteCartItem(ctx context.Context, id, buyerID string) error

	// CreateOrder persists the order, its items and the notifications
	// composed by notify in one transaction. The order number is assigned
	// inside that transaction via the sequence counter; o.OrderNumber and
	// o.OrderRef are populated on return. No product stock changes.
	CreateOrder(ctx context.Context, o *Order, notify NotifyFunc) error

	Order(ctx context.Context, id string) (*Order, error)
	OrdersByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	OrdersBySeller(ctx context.Context, sellerID string) ([]Order, error)

	// SetStatus is a compare-and-set on the order status: the write only
	// happens if the current status equals from, otherwise an
	// InvalidTransitionError with the actual status is returned.
	SetStatus(ctx context.Context, orderID string, from, to Status, upd StatusUpdate, notify NotifyFunc) (*Order, error)

	// ConfirmItems drives pending->confirmed. In one transaction it
	// re-checks the order is still pending, conditionally decrements stock
	// for every item owned by sellerID (empty sellerID = all items, the
	// admin path), deactivates products whose stock reaches zero, writes
	// the status and inserts the notifications. A line whose stock cannot
	// cover the quantity fails the whole transaction with
	// InsufficientStockError; stock never goes negative.
	ConfirmItems(ctx context.Context, orderID, sellerID string, notify NotifyFunc) (*Order, error)

	// Notifications, recipient-scoped. Notifications also reports the
	// recipient's unread count.
	Notifications(ctx context.Context, userID string, limit int) ([]Notification, int, error)
	MarkNotificationRead(ctx context.Context, id, userID string) (*Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id, userID string) error
	ClearNotifications(ctx context.Context, userID string) error
}
