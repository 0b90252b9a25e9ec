// Package memstore is a mutex-guarded, in-process implementation of
// market.Store. It backs unit tests and the MEM_STORE dev mode; postgres
// is the production store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/empowher/marketplace/internal/market"
)

type rec[T any] struct {
	v   T
	seq int64 // insertion order, used as a sort tie-breaker
}

type Store struct {
	mu    sync.Mutex
	nextS int64

	seqs     map[string]int64
	products map[string]*rec[*market.Product]
	cart     map[string]*rec[*market.CartItem]
	orders   map[string]*rec[*market.Order]
	reviews  []*rec[*market.Review]
	notifs   []*rec[*market.Notification]
}

func New() *Store {
	return &Store{
		seqs:     map[string]int64{},
		products: map[string]*rec[*market.Product]{},
		cart:     map[string]*rec[*market.CartItem]{},
		orders:   map[string]*rec[*market.Order]{},
	}
}

func (s *Store) bump() int64 {
	s.nextS++
	return s.nextS
}

// --- sequences ---

func (s *Store) NextSequence(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[name]++
	return s.seqs[name], nil
}

// --- catalog ---

func (s *Store) Product(_ context.Context, id string) (*market.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.products[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	return cloneProduct(r.v), nil
}

func (s *Store) ActiveProducts(_ context.Context) ([]market.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*rec[*market.Product]
	for _, r := range s.products {
		if r.v.IsActive {
			recs = append(recs, r)
		}
	}
	return sortedProducts(recs), nil
}

func (s *Store) FeaturedProducts(_ context.Context, limit int) ([]market.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*rec[*market.Product]
	for _, r := range s.products {
		if r.v.Featured && r.v.IsActive {
			recs = append(recs, r)
		}
	}
	out := sortedProducts(recs)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ProductsBySeller(_ context.Context, sellerID string) ([]market.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*rec[*market.Product]
	for _, r := range s.products {
		if r.v.SellerID == sellerID {
			recs = append(recs, r)
		}
	}
	return sortedProducts(recs), nil
}

func (s *Store) CreateProduct(_ context.Context, p *market.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &rec[*market.Product]{v: cloneProduct(p), seq: s.bump()}
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *market.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.products[p.ID]
	if !ok {
		return market.ErrNotFound
	}
	r.v = cloneProduct(p)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return market.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// sortedProducts returns cloned values newest-insert first.
func sortedProducts(recs []*rec[*market.Product]) []market.Product {
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]market.Product, 0, len(recs))
	for _, r := range recs {
		out = append(out, *cloneProduct(r.v))
	}
	return out
}

// --- reviews ---

func (s *Store) AddReview(_ context.Context, rv *market.Review) (*market.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.products[rv.ProductID]
	if !ok {
		return nil, market.ErrNotFound
	}
	var sum, count int
	for _, r := range s.reviews {
		if r.v.ProductID != rv.ProductID {
			continue
		}
		if r.v.UserID == rv.UserID {
			return nil, market.ErrAlreadyReviewed
		}
		sum += r.v.Rating
		count++
	}
	cp := *rv
	s.reviews = append(s.reviews, &rec[*market.Review]{v: &cp, seq: s.bump()})
	sum += rv.Rating
	count++
	pr.v.RatingAvg = float64(sum) / float64(count)
	pr.v.RatingCount = count
	pr.v.UpdatedAt = time.Now()
	return cloneProduct(pr.v), nil
}

func (s *Store) Reviews(_ context.Context, productID string) ([]market.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*rec[*market.Review]
	for _, r := range s.reviews {
		if r.v.ProductID == productID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]market.Review, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r.v)
	}
	return out, nil
}

// --- cart ---

func (s *Store) UpsertCartItem(_ context.Context, buyerID, productID string, qty int, priceSnapshot int64) (*market.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, r := range s.cart {
		if r.v.BuyerID == buyerID && r.v.ProductID == productID {
			r.v.Quantity += qty
			r.v.UpdatedAt = now
			return cloneCartItem(r.v), nil
		}
	}
	it := &market.CartItem{
		ID:                 uuid.NewString(),
		BuyerID:            buyerID,
		ProductID:          productID,
		Quantity:           qty,
		PriceSnapshotCents: priceSnapshot,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.cart[it.ID] = &rec[*market.CartItem]{v: it, seq: s.bump()}
	return cloneCartItem(it), nil
}

func (s *Store) CartItems(_ context.Context, buyerID string) ([]market.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*rec[*market.CartItem]
	for _, r := range s.cart {
		if r.v.BuyerID == buyerID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]market.CartItem, 0, len(recs))
	for _, r := range recs {
		it := *cloneCartItem(r.v)
		if pr, ok := s.products[it.ProductID]; ok {
			it.Product = cloneProduct(pr.v)
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) SetCartQuantity(_ context.Context, id, buyerID string, qty int) (*market.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.cart[id]
	if !ok || r.v.BuyerID != buyerID {
		return nil, market.ErrNotFound
	}
	r.v.Quantity = qty
	r.v.UpdatedAt = time.Now()
	return cloneCartItem(r.v), nil
}

func (s *Store) DeleteCartItem(_ context.Context, id, buyerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.cart[id]
	if !ok || r.v.BuyerID != buyerID {
		return market.ErrNotFound
	}
	delete(s.cart, id)
	return nil
}

// --- orders ---

func (s *Store) CreateOrder(_ context.Context, o *market.Order, notify market.NotifyFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[market.OrderSequence]++
	o.OrderNumber = s.seqs[market.OrderSequence]
	o.OrderRef = market.FormatOrderRef(o.OrderNumber)
	saved := cloneOrder(o)
	s.orders[o.ID] = &rec[*market.Order]{v: saved, seq: s.bump()}
	if notify != nil {
		s.appendNotifs(notify(cloneOrder(saved), nil))
	}
	return nil
}

func (s *Store) Order(_ context.Context, id string) (*market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.orders[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	return cloneOrder(r.v), nil
}

func (s *Store) OrdersByBuyer(_ context.Context, buyerID string) ([]market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterOrders(func(o *market.Order) bool { return o.BuyerID == buyerID }), nil
}

func (s *Store) OrdersBySeller(_ context.Context, sellerID string) ([]market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterOrders(func(o *market.Order) bool { return o.HasSeller(sellerID) }), nil
}

func (s *Store) filterOrders(keep func(*market.Order) bool) []market.Order {
	var recs []*rec[*market.Order]
	for _, r := range s.orders {
		if keep(r.v) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]market.Order, 0, len(recs))
	for _, r := range recs {
		out = append(out, *cloneOrder(r.v))
	}
	return out
}

func (s *Store) SetStatus(_ context.Context, orderID string, from, to market.Status, upd market.StatusUpdate, notify market.NotifyFunc) (*market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.orders[orderID]
	if !ok {
		return nil, market.ErrNotFound
	}
	if r.v.Status != from {
		return nil, &market.InvalidTransitionError{From: r.v.Status, To: to}
	}
	r.v.Status = to
	applyUpdate(r.v, upd)
	r.v.UpdatedAt = time.Now()
	if notify != nil {
		s.appendNotifs(notify(cloneOrder(r.v), nil))
	}
	return cloneOrder(r.v), nil
}

func (s *Store) ConfirmItems(_ context.Context, orderID, sellerID string, notify market.NotifyFunc) (*market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.orders[orderID]
	if !ok {
		return nil, market.ErrNotFound
	}
	o := r.v
	if o.Status != market.StatusPending {
		return nil, &market.InvalidTransitionError{From: o.Status, To: market.StatusConfirmed}
	}

	var lines []market.OrderItem
	for _, it := range o.Items {
		if sellerID == "" || it.SellerID == sellerID {
			lines = append(lines, it)
		}
	}

	// First pass: stock must cover the summed quantity per product, or
	// nothing changes. Two lines for the same product count once.
	needed := map[string]int{}
	for _, it := range lines {
		needed[it.ProductID] += it.Quantity
	}
	for _, it := range lines {
		pr, ok := s.products[it.ProductID]
		if !ok {
			continue
		}
		if pr.v.Stock < needed[it.ProductID] {
			return nil, &market.InsufficientStockError{ProductName: pr.v.Name, Available: pr.v.Stock}
		}
	}

	var exhausted []market.Product
	for _, it := range lines {
		pr, ok := s.products[it.ProductID]
		if !ok {
			continue
		}
		pr.v.Stock -= it.Quantity
		if pr.v.Stock <= 0 {
			pr.v.Stock = 0
			pr.v.IsActive = false
			exhausted = append(exhausted, *cloneProduct(pr.v))
		}
		pr.v.UpdatedAt = time.Now()
	}

	o.Status = market.StatusConfirmed
	o.UpdatedAt = time.Now()
	if notify != nil {
		s.appendNotifs(notify(cloneOrder(o), exhausted))
	}
	return cloneOrder(o), nil
}

// --- notifications ---

func (s *Store) appendNotifs(ns []market.Notification) {
	for i := range ns {
		n := ns[i]
		s.notifs = append(s.notifs, &rec[*market.Notification]{v: &n, seq: s.bump()})
	}
}

func (s *Store) Notifications(_ context.Context, userID string, limit int) ([]market.Notification, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recs []*rec[*market.Notification]
	unread := 0
	for _, r := range s.notifs {
		if r.v.UserID != userID {
			continue
		}
		recs = append(recs, r)
		if !r.v.IsRead {
			unread++
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]market.Notification, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r.v)
	}
	return out, unread, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, userID string) (*market.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.notifs {
		if r.v.ID == id && r.v.UserID == userID {
			r.v.IsRead = true
			n := *r.v
			return &n, nil
		}
	}
	return nil, market.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.notifs {
		if r.v.UserID == userID {
			r.v.IsRead = true
		}
	}
	return nil
}

func (s *Store) DeleteNotification(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.notifs {
		if r.v.ID == id && r.v.UserID == userID {
			s.notifs = append(s.notifs[:i], s.notifs[i+1:]...)
			return nil
		}
	}
	return market.ErrNotFound
}

func (s *Store) ClearNotifications(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifs[:0]
	for _, r := range s.notifs {
		if r.v.UserID != userID {
			kept = append(kept, r)
		}
	}
	s.notifs = kept
	return nil
}

// --- clones ---

func cloneProduct(p *market.Product) *market.Product {
	cp := *p
	return &cp
}

func cloneCartItem(it *market.CartItem) *market.CartItem {
	ci := *it
	ci.Product = nil
	return &ci
}

func cloneOrder(o *market.Order) *market.Order {
	co := *o
	co.Items = append([]market.OrderItem(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		co.DeliveredAt = &t
	}
	return &co
}

func applyUpdate(o *market.Order, upd market.StatusUpdate) {
	if upd.TrackingNumber != nil {
		o.TrackingNumber = *upd.TrackingNumber
	}
	if upd.DeliveredAt != nil {
		t := *upd.DeliveredAt
		o.DeliveredAt = &t
	}
	if upd.PaymentRef != nil {
		o.PaymentRef = *upd.PaymentRef
	}
	if upd.PaymentStatus != nil {
		o.PaymentStatus = *upd.PaymentStatus
	}
}
