package market

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type StatusChange struct {
	Target         Status `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// UpdateOrderStatus is the single entry point for seller/admin driven
// transitions. The confirm edge additionally decrements the confirming
// seller's stock inside the store transaction; every other edge is a
// guarded status write. The pending->processing edge belongs to
// SubmitPayment and is rejected here.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor Actor, orderID string, ch StatusChange) (*Order, error) {
	o, err := s.Store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !o.HasSeller(actor.UserID) {
		return nil, ErrForbidden
	}
	if !CanTransition(o.Status, ch.Target) {
		return nil, &InvalidTransitionError{From: o.Status, To: ch.Target}
	}
	if o.Status == StatusPending && ch.Target == StatusProcessing {
		// Payment submission owns this edge.
		return nil, ErrForbidden
	}

	from := o.Status
	var updated *Order
	if ch.Target == StatusConfirmed {
		sellerID := actor.UserID
		if actor.IsAdmin() {
			sellerID = "" // admin confirms every line
		}
		updated, err = s.Store.ConfirmItems(ctx, orderID, sellerID, func(saved *Order, exhausted []Product) []Notification {
			notifs := []Notification{{
				ID:        uuid.NewString(),
				UserID:    saved.BuyerID,
				Type:      NotifyOrderConfirmed,
				Title:     "Order Confirmed",
				Message:   fmt.Sprintf("Your order #%s has been confirmed by the seller", saved.OrderRef),
				Related:   &RelatedRef{Kind: RelatedOrder, ID: saved.ID},
				CreatedAt: s.now(),
			}}
			for _, p := range exhausted {
				notifs = append(notifs, Notification{
					ID:        uuid.NewString(),
					UserID:    p.SellerID,
					Type:      NotifyStock,
					Title:     "Product Out of Stock",
					Message:   fmt.Sprintf("%s is out of stock and has been deactivated", p.Name),
					Related:   &RelatedRef{Kind: RelatedProduct, ID: p.ID},
					CreatedAt: s.now(),
				})
			}
			return notifs
		})
	} else {
		upd := StatusUpdate{}
		if ch.TrackingNumber != "" {
			tn := ch.TrackingNumber
			upd.TrackingNumber = &tn
		}
		if ch.Target == StatusDelivered {
			now := s.now()
			upd.DeliveredAt = &now
		}
		updated, err = s.Store.SetStatus(ctx, orderID, from, ch.Target, upd, func(saved *Order, _ []Product) []Notification {
			return []Notification{{
				ID:        uuid.NewString(),
				UserID:    saved.BuyerID,
				Type:      NotifyOrder,
				Title:     "Order Status Updated",
				Message:   fmt.Sprintf("Your order #%s status has been updated to %s", saved.OrderRef, ch.Target),
				Related:   &RelatedRef{Kind: RelatedOrder, ID: saved.ID},
				CreatedAt: s.now(),
			}}
		})
	}
	if err != nil {
		return nil, err
	}

	s.emit(EventOrderStatusChanged, updated.ID, OrderStatusChangedPayload{
		OrderID:  updated.ID,
		OrderRef: updated.OrderRef,
		BuyerID:  updated.BuyerID,
		From:     from,
		To:       updated.Status,
		ActorID:  actor.UserID,
	})
	s.Log.Info("order status changed", "order_id", updated.ID, "from", from, "to", updated.Status, "actor", actor.UserID)
	return updated, nil
}

type PaymentResult struct {
	Ref    string `json:"id"`
	Status string `json:"status"`
}

// SubmitPayment records the buyer's payment result and moves the order
// from pending to processing. This path never touches stock.
func (s *Service) SubmitPayment(ctx context.Context, actor Actor, orderID string, res PaymentResult) (*Order, error) {
	o, err := s.Store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID {
		return nil, ErrForbidden
	}

	paid := PaymentPaid
	ref := res.Ref
	updated, err := s.Store.SetStatus(ctx, orderID, StatusPending, StatusProcessing, StatusUpdate{
		PaymentRef:    &ref,
		PaymentStatus: &paid,
	}, nil)
	if err != nil {
		return nil, err
	}

	s.emit(EventOrderStatusChanged, updated.ID, OrderStatusChangedPayload{
		OrderID:  updated.ID,
		OrderRef: updated.OrderRef,
		BuyerID:  updated.BuyerID,
		From:     StatusPending,
		To:       StatusProcessing,
		ActorID:  actor.UserID,
	})
	return updated, nil
}
