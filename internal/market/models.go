// Package market holds the marketplace domain: catalog, carts, orders,
// the order status machine and notification fan-out.
package market

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated caller, as resolved by the edge.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"is_active"`
	Featured    bool      `json:"featured"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Review is one buyer's rating of a product; a user reviews a given
// product at most once.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is one (buyer, product) row. PriceSnapshotCents is the product
// price at add time and is not revisited on quantity updates.
type CartItem struct {
	ID                 string    `json:"id"`
	BuyerID            string    `json:"buyer_id"`
	ProductID          string    `json:"product_id"`
	Quantity           int       `json:"quantity"`
	PriceSnapshotCents int64     `json:"price_snapshot_cents"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Product            *Product  `json:"product,omitempty"` // resolved on list
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentStripe PaymentMethod = "stripe"
	PaymentPaypal PaymentMethod = "paypal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// OrderItem is an immutable snapshot taken at order creation. Later product
// edits never alter it.
type OrderItem struct {
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	ProductID    string `json:"product_id"`
	SellerID     string `json:"seller_id"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image,omitempty"`
	Quantity     int    `json:"quantity"`
	PriceCents   int64  `json:"price_cents"`
}

type Order struct {
	ID              string        `json:"id"`
	OrderNumber     int64         `json:"order_number"`
	OrderRef        string        `json:"order_ref"` // e.g. ORD0001
	BuyerID         string        `json:"buyer_id"`
	BuyerName       string        `json:"buyer_name"`
	BuyerPhone      string        `json:"buyer_phone"`
	Items           []OrderItem   `json:"items"`
	DeliveryAddress Address       `json:"delivery_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentRef      string        `json:"payment_ref,omitempty"`
	ItemsCents      int64         `json:"items_cents"`
	TaxCents        int64         `json:"tax_cents"`
	ShippingCents   int64         `json:"shipping_cents"`
	TotalCents      int64         `json:"total_cents"`
	Status          Status        `json:"status"`
	TrackingNumber  string        `json:"tracking_number,omitempty"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// HasSeller reports whether at least one item belongs to sellerID.
func (o *Order) HasSeller(sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

// ItemsOf returns the items belonging to sellerID, in order.
func (o *Order) ItemsOf(sellerID string) []OrderItem {
	var out []OrderItem
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			out = append(out, it)
		}
	}
	return out
}

// SellerIDs returns the distinct sellers represented in the order,
// in first-seen item order.
func (o *Order) SellerIDs() []string {
	seen := make(map[string]bool, len(o.Items))
	var out []string
	for _, it := range o.Items {
		if !seen[it.SellerID] {
			seen[it.SellerID] = true
			out = append(out, it.SellerID)
		}
	}
	return out
}

// SellerOrder is a seller-scoped view of an order: items filtered to the
// seller and a total covering only those items.
type SellerOrder struct {
	Order
	SellerTotalCents int64 `json:"seller_total_cents"`
}

type RelatedKind string

const (
	RelatedOrder   RelatedKind = "order"
	RelatedProduct RelatedKind = "product"
	RelatedUser    RelatedKind = "user"
)

// RelatedRef points a notification at the entity it is about.
type RelatedRef struct {
	Kind RelatedKind `json:"kind"`
	ID   string      `json:"id"`
}

type NotificationType string

const (
	NotifyNewOrder       NotificationType = "new_order"
	NotifyOrder          NotificationType = "order"
	NotifyOrderConfirmed NotificationType = "order_confirmed"
	NotifyStock          NotificationType = "stock"
	NotifyPayment        NotificationType = "payment"
	NotifySystem         NotificationType = "system"
	NotifyOther          NotificationType = "other"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Related   *RelatedRef      `json:"related,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
