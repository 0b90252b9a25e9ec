package market

import "context"

// GetOrder returns the order when the caller is its buyer, a seller with
// at least one item in it, or an admin.
func (s *Service) GetOrder(ctx context.Context, actor Actor, orderID string) (*Order, error) {
	o, err := s.Store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != actor.UserID && !o.HasSeller(actor.UserID) && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return o, nil
}

// MyOrders lists the buyer's orders, newest first.
func (s *Service) MyOrders(ctx context.Context, buyer Actor) ([]Order, error) {
	return s.Store.OrdersByBuyer(ctx, buyer.UserID)
}

// SellerOrders lists the orders containing the seller's items, with the
// item list narrowed to that seller and a total covering only those
// lines. Other sellers' line items never leave the service.
func (s *Service) SellerOrders(ctx context.Context, seller Actor) ([]SellerOrder, error) {
	orders, err := s.Store.OrdersBySeller(ctx, seller.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]SellerOrder, 0, len(orders))
	for _, o := range orders {
		items := o.ItemsOf(seller.UserID)
		var total int64
		for _, it := range items {
			total += it.PriceCents * int64(it.Quantity)
		}
		view := o
		view.Items = items
		out = append(out, SellerOrder{Order: view, SellerTotalCents: total})
	}
	return out, nil
}
