package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OrderSequence is the counter name behind human-readable order refs.
const OrderSequence = "orderCounter"

// FormatOrderRef renders the display id, zero-padded to at least four
// digits. Larger numbers keep all their digits.
func FormatOrderRef(n int64) string { return fmt.Sprintf("ORD%04d", n) }

type CheckoutItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInput struct {
	Items           []CheckoutItem `json:"items"`
	DeliveryAddress Address        `json:"delivery_address"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	BuyerName       string         `json:"buyer_name,omitempty"`
	BuyerPhone      string         `json:"buyer_phone,omitempty"`
}

// Checkout validates the payload against the catalog, snapshots the line
// items and persists a pending order plus one new-order notification per
// distinct seller. Stock is deliberately untouched here: inventory is only
// held when a seller confirms. The buyer's cart is not cleared either, so
// a failed payment can be retried from the same cart.
func (s *Service) Checkout(ctx context.Context, buyer Actor, in CheckoutInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var (
		items      []OrderItem
		itemsCents int64
	)
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, Invalidf("quantity must be at least 1")
		}
		p, err := s.Store.Product(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		if !p.IsActive {
			return nil, &ProductUnavailableError{Name: p.Name}
		}
		if p.Stock < line.Quantity {
			return nil, &InsufficientStockError{ProductName: p.Name, Available: p.Stock}
		}
		items = append(items, OrderItem{
			ID:           uuid.NewString(),
			ProductID:    p.ID,
			SellerID:     p.SellerID,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
			Quantity:     line.Quantity,
			PriceCents:   p.PriceCents,
		})
		itemsCents += p.PriceCents * int64(line.Quantity)
	}

	// Tax and shipping are not charged yet.
	var taxCents, shippingCents int64

	now := s.now()
	o := &Order{
		ID:              uuid.NewString(),
		BuyerID:         buyer.UserID,
		BuyerName:       orDefault(in.BuyerName, "N/A"),
		BuyerPhone:      orDefault(in.BuyerPhone, "N/A"),
		Items:           items,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   defaultMethod(in.PaymentMethod),
		PaymentStatus:   PaymentPending,
		ItemsCents:      itemsCents,
		TaxCents:        taxCents,
		ShippingCents:   shippingCents,
		TotalCents:      itemsCents + taxCents + shippingCents,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	err := s.Store.CreateOrder(ctx, o, func(saved *Order, _ []Product) []Notification {
		return s.sellerFanout(saved)
	})
	if err != nil {
		return nil, err
	}

	s.emit(EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:    o.ID,
		OrderRef:   o.OrderRef,
		BuyerID:    o.BuyerID,
		SellerIDs:  o.SellerIDs(),
		TotalCents: o.TotalCents,
	})
	s.Log.Info("order created", "order_id", o.ID, "order_ref", o.OrderRef, "buyer_id", o.BuyerID, "sellers", len(o.SellerIDs()), "total_cents", o.TotalCents)
	return o, nil
}

// sellerFanout builds one new-order notification per distinct seller,
// listing only that seller's lines.
func (s *Service) sellerFanout(o *Order) []Notification {
	notifs := make([]Notification, 0, len(o.SellerIDs()))
	for _, sellerID := range o.SellerIDs() {
		parts := make([]string, 0, len(o.Items))
		for _, it := range o.ItemsOf(sellerID) {
			parts = append(parts, fmt.Sprintf("%s (Qty: %d)", it.ProductName, it.Quantity))
		}
		notifs = append(notifs, Notification{
			ID:        uuid.NewString(),
			UserID:    sellerID,
			Type:      NotifyNewOrder,
			Title:     "New Order Received",
			Message:   fmt.Sprintf("Order #%s - Products: %s", o.OrderRef, strings.Join(parts, ", ")),
			Related:   &RelatedRef{Kind: RelatedOrder, ID: o.ID},
			CreatedAt: s.now(),
		})
	}
	return notifs
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func defaultMethod(m PaymentMethod) PaymentMethod {
	if m == "" {
		return PaymentCOD
	}
	return m
}
