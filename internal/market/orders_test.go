package market_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empowher/marketplace/internal/market"
)

func TestGetOrderVisibility(t *testing.T) {
	svc, store := newTestService(t)
	b := buyer()
	sl := seller()
	p := seedProduct(t, store, sl.UserID, "Embroidered cushion", 65000, 5, true)
	o := mustCheckout(t, svc, b, market.CheckoutItem{ProductID: p.ID, Quantity: 1})

	for name, actor := range map[string]market.Actor{
		"buyer":  b,
		"seller": sl,
		"admin":  admin(),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := svc.GetOrder(context.Background(), actor, o.ID)
			require.NoError(t, err)
			assert.Equal(t, o.ID, got.ID)
		})
	}

	t.Run("stranger", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), buyer(), o.ID)
		require.ErrorIs(t, err, market.ErrForbidden)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), b, "missing")
		require.ErrorIs(t, err, market.ErrNotFound)
	})
}

func TestMyOrdersScopedToBuyer(t *testing.T) {
	svc, store := newTestService(t)
	b1, b2 := buyer(), buyer()
	p := seedProduct(t, store, seller().UserID, "Woven runner", 48000, 20, true)

	mustCheckout(t, svc, b1, market.CheckoutItem{ProductID: p.ID, Quantity: 1})
	mustCheckout(t, svc, b1, market.CheckoutItem{ProductID: p.ID, Quantity: 2})
	mustCheckout(t, svc, b2, market.CheckoutItem{ProductID: p.ID, Quantity: 1})

	orders, err := svc.MyOrders(context.Background(), b1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, b1.UserID, o.BuyerID)
	}
}

func TestSellerOrdersFilterItemsAndTotal(t *testing.T) {
	svc, store := newTestService(t)
	b := buyer()
	sA, sB := seller(), seller()
	pa := seedProduct(t, store, sA.UserID, "Silver anklet", 90000, 10, true)
	pb := seedProduct(t, store, sB.UserID, "Carved tray", 130000, 10, true)

	o := mustCheckout(t, svc, b,
		market.CheckoutItem{ProductID: pa.ID, Quantity: 2},
		market.CheckoutItem{ProductID: pb.ID, Quantity: 1},
	)

	viewsA, err := svc.SellerOrders(context.Background(), sA)
	require.NoError(t, err)
	require.Len(t, viewsA, 1)
	assert.Equal(t, o.ID, viewsA[0].ID)
	require.Len(t, viewsA[0].Items, 1, "other sellers' lines never leak")
	assert.Equal(t, pa.ID, viewsA[0].Items[0].ProductID)
	assert.Equal(t, int64(180000), viewsA[0].SellerTotalCents)
	assert.Equal(t, int64(310000), viewsA[0].TotalCents, "the order-level total stays whole")

	viewsB, err := svc.SellerOrders(context.Background(), sB)
	require.NoError(t, err)
	require.Len(t, viewsB, 1)
	assert.Equal(t, int64(130000), viewsB[0].SellerTotalCents)

	none, err := svc.SellerOrders(context.Background(), seller())
	require.NoError(t, err)
	assert.Empty(t, none)
}
