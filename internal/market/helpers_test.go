package market_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/memstore"
)

func newTestService(t *testing.T) (*market.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return market.NewService(store, market.NopPublisher{}, log, "test"), store
}

func seedProduct(t *testing.T, store market.Store, sellerID, name string, priceCents int64, stock int, active bool) *market.Product {
	t.Helper()
	p := &market.Product{
		ID:         uuid.NewString(),
		SellerID:   sellerID,
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   active,
	}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}

func buyer() market.Actor  { return market.Actor{UserID: uuid.NewString(), Role: market.RoleBuyer} }
func seller() market.Actor { return market.Actor{UserID: uuid.NewString(), Role: market.RoleSeller} }
func admin() market.Actor  { return market.Actor{UserID: uuid.NewString(), Role: market.RoleAdmin} }

func mustCheckout(t *testing.T, svc *market.Service, b market.Actor, lines ...market.CheckoutItem) *market.Order {
	t.Helper()
	o, err := svc.Checkout(context.Background(), b, market.CheckoutInput{
		Items: lines,
		DeliveryAddress: market.Address{
			Street: "12 MG Road", City: "Pune", State: "MH", ZipCode: "411001", Country: "India",
		},
		PaymentMethod: market.PaymentCOD,
		BuyerName:     "Asha",
		BuyerPhone:    "9999999999",
	})
	require.NoError(t, err)
	return o
}

func notificationsOf(t *testing.T, store market.Store, userID string) []market.Notification {
	t.Helper()
	ns, _, err := store.Notifications(context.Background(), userID, 50)
	require.NoError(t, err)
	return ns
}

// capturePublisher records emitted envelopes for assertions.
type capturePublisher struct {
	mu  sync.Mutex
	evs []market.Envelope
}

func (c *capturePublisher) Publish(ev market.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evs = append(c.evs, ev)
}

func (c *capturePublisher) events() []market.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]market.Envelope(nil), c.evs...)
}
