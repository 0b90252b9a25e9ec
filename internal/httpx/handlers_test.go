package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/memstore"
)

type env struct {
	router *chi.Mux
	store  *memstore.Store
	svc    *market.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := market.NewService(store, market.NopPublisher{}, log, "test")

	router := NewRouter(nil)
	products := &ProductsHandler{Service: svc, Log: log}
	products.RegisterPublic(router)
	router.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		(&OrdersHandler{Service: svc, Log: log}).Register(r)
		(&CartHandler{Service: svc, Log: log}).Register(r)
		(&NotificationsHandler{Service: svc, Log: log}).Register(r)
		products.Register(r)
	})
	return &env{router: router, store: store, svc: svc}
}

func (e *env) do(t *testing.T, method, path string, as *market.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if as != nil {
		req.Header.Set(HeaderUserID, as.UserID)
		req.Header.Set(HeaderUserRole, string(as.Role))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *env) seedProduct(t *testing.T, sellerID string, name string, priceCents int64, stock int) *market.Product {
	t.Helper()
	p := &market.Product{
		ID: uuid.NewString(), SellerID: sellerID, Name: name,
		PriceCents: priceCents, Stock: stock, IsActive: true,
	}
	require.NoError(t, e.store.CreateProduct(context.Background(), p))
	return p
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) (response, json.RawMessage) {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Count   *int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return response{Success: body.Success, Message: body.Message, Count: body.Count}, body.Data
}

func actorOf(role market.Role) market.Actor {
	return market.Actor{UserID: uuid.NewString(), Role: role}
}

func checkoutBody(p *market.Product, qty int) map[string]any {
	return map[string]any{
		"items":            []map[string]any{{"product": p.ID, "quantity": qty}},
		"delivery_address": map[string]string{"street": "1 Lane", "city": "Pune", "state": "MH", "zip_code": "411001", "country": "India"},
		"payment_method":   "cod",
	}
}

func TestIdentityRequired(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodGet, "/cart/my", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	body, _ := decodeBody(t, rr)
	assert.False(t, body.Success)
	assert.Equal(t, "Not authenticated", body.Message)
}

func TestPublicCatalogNeedsNoIdentity(t *testing.T) {
	e := newEnv(t)
	sl := actorOf(market.RoleSeller)
	e.seedProduct(t, sl.UserID, "Glass beads", 12000, 5)

	rr := e.do(t, http.MethodGet, "/products", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body, data := decodeBody(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 1, *body.Count)

	var products []market.Product
	require.NoError(t, json.Unmarshal(data, &products))
	assert.Equal(t, "Glass beads", products[0].Name)
}

func TestCreateOrderEndpoint(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	sl := actorOf(market.RoleSeller)
	p := e.seedProduct(t, sl.UserID, "Bell metal plate", 90000, 5)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 2))
	require.Equal(t, http.StatusCreated, rr.Code)
	body, data := decodeBody(t, rr)
	assert.True(t, body.Success)

	var o market.Order
	require.NoError(t, json.Unmarshal(data, &o))
	assert.Equal(t, fmt.Sprintf("Order placed successfully! Order ID: #%s", o.OrderRef), body.Message)
	assert.Equal(t, market.StatusPending, o.Status)
	assert.Equal(t, int64(180000), o.TotalCents)
}

func TestCreateOrderRejectsShortStock(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	p := e.seedProduct(t, uuid.NewString(), "Rosewood comb", 30000, 1)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 3))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body, _ := decodeBody(t, rr)
	assert.Contains(t, body.Message, "Only 1 items available")
}

func TestGetOrderVisibilityCodes(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	p := e.seedProduct(t, uuid.NewString(), "Chess set", 150000, 5)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 1))
	require.Equal(t, http.StatusCreated, rr.Code)
	_, data := decodeBody(t, rr)
	var o market.Order
	require.NoError(t, json.Unmarshal(data, &o))

	t.Run("owner", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/orders/"+o.ID, &b, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("stranger", func(t *testing.T) {
		stranger := actorOf(market.RoleBuyer)
		rr := e.do(t, http.MethodGet, "/orders/"+o.ID, &stranger, nil)
		require.Equal(t, http.StatusForbidden, rr.Code)
		body, _ := decodeBody(t, rr)
		assert.Equal(t, "Not authorized", body.Message)
	})
	t.Run("unknown", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/orders/"+uuid.NewString(), &b, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	sl := actorOf(market.RoleSeller)
	p := e.seedProduct(t, sl.UserID, "Lacquer bangles", 25000, 10)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 2))
	require.Equal(t, http.StatusCreated, rr.Code)
	_, data := decodeBody(t, rr)
	var o market.Order
	require.NoError(t, json.Unmarshal(data, &o))

	t.Run("unknown status", func(t *testing.T) {
		rr := e.do(t, http.MethodPut, "/orders/"+o.ID+"/status", &sl, map[string]string{"status": "teleported"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("confirm", func(t *testing.T) {
		rr := e.do(t, http.MethodPut, "/orders/"+o.ID+"/status", &sl, map[string]string{"status": "confirmed"})
		require.Equal(t, http.StatusOK, rr.Code)
		body, _ := decodeBody(t, rr)
		assert.Equal(t, "Order confirmed! Stock updated.", body.Message)

		got, err := e.store.Product(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Stock)
	})

	t.Run("confirm again conflicts", func(t *testing.T) {
		rr := e.do(t, http.MethodPut, "/orders/"+o.ID+"/status", &sl, map[string]string{"status": "confirmed"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("ship with tracking via seller prefix", func(t *testing.T) {
		rr := e.do(t, http.MethodPut, "/seller/orders/"+o.ID+"/status", &sl, map[string]string{
			"status": "shipped", "tracking_number": "AWB-1",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		_, data := decodeBody(t, rr)
		var got market.Order
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "AWB-1", got.TrackingNumber)
	})
}

func TestSellerOrdersEndpointFiltersItems(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	sA := actorOf(market.RoleSeller)
	sB := actorOf(market.RoleSeller)
	pa := e.seedProduct(t, sA.UserID, "Onyx paperweight", 50000, 5)
	pb := e.seedProduct(t, sB.UserID, "Felt coasters", 20000, 5)

	rr := e.do(t, http.MethodPost, "/orders", &b, map[string]any{
		"items": []map[string]any{
			{"product": pa.ID, "quantity": 1},
			{"product": pb.ID, "quantity": 2},
		},
		"delivery_address": map[string]string{"street": "1 Lane", "city": "Pune", "state": "MH", "zip_code": "411001", "country": "India"},
		"payment_method":   "cod",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(t, http.MethodGet, "/orders/seller-orders", &sB, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body, data := decodeBody(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 1, *body.Count)

	var views []market.SellerOrder
	require.NoError(t, json.Unmarshal(data, &views))
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1)
	assert.Equal(t, pb.ID, views[0].Items[0].ProductID)
	assert.Equal(t, int64(40000), views[0].SellerTotalCents)
}

func TestPaymentEndpoint(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	p := e.seedProduct(t, uuid.NewString(), "Block-print quilt", 200000, 5)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 1))
	require.Equal(t, http.StatusCreated, rr.Code)
	_, data := decodeBody(t, rr)
	var o market.Order
	require.NoError(t, json.Unmarshal(data, &o))

	rr = e.do(t, http.MethodPost, "/orders/"+o.ID+"/payment", &b, map[string]any{
		"payment_result": map[string]string{"id": "pay_1", "status": "succeeded"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	_, data = decodeBody(t, rr)
	var paid market.Order
	require.NoError(t, json.Unmarshal(data, &paid))
	assert.Equal(t, market.StatusProcessing, paid.Status)
	assert.Equal(t, market.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, "pay_1", paid.PaymentRef)
}

func TestOrderStatusLookup(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	p := e.seedProduct(t, uuid.NewString(), "Brass diya", 15000, 5)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 1))
	require.Equal(t, http.StatusCreated, rr.Code)
	_, data := decodeBody(t, rr)
	var o market.Order
	require.NoError(t, json.Unmarshal(data, &o))

	rr = e.do(t, http.MethodGet, "/orders/"+o.ID+"/status", &b, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["status"])

	t.Run("stranger denied", func(t *testing.T) {
		stranger := actorOf(market.RoleBuyer)
		rr := e.do(t, http.MethodGet, "/orders/"+o.ID+"/status", &stranger, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code, "status visibility follows order visibility")
	})
}

func TestFeaturedProductsEndpoint(t *testing.T) {
	e := newEnv(t)
	sl := actorOf(market.RoleSeller)
	p := e.seedProduct(t, sl.UserID, "Showcase kettle", 120000, 3)
	e.seedProduct(t, sl.UserID, "Plain kettle", 80000, 3)

	featured := true
	_, err := e.svc.UpdateProduct(context.Background(), sl, p.ID, market.ProductUpdate{Featured: &featured})
	require.NoError(t, err)

	rr := e.do(t, http.MethodGet, "/products/featured", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	_, data := decodeBody(t, rr)
	var products []market.Product
	require.NoError(t, json.Unmarshal(data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Showcase kettle", products[0].Name)
}

func TestReviewEndpoints(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	p := e.seedProduct(t, uuid.NewString(), "Rated teapot", 60000, 5)

	t.Run("rating out of range", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/products/"+p.ID+"/reviews", &b, map[string]any{"rating": 6})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("create", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/products/"+p.ID+"/reviews", &b, map[string]any{"rating": 4, "comment": "Pours well"})
		require.Equal(t, http.StatusCreated, rr.Code)
		_, data := decodeBody(t, rr)
		var got market.Product
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, 1, got.RatingCount)
		assert.InDelta(t, 4.0, got.RatingAvg, 1e-9)
	})

	t.Run("second review rejected", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/products/"+p.ID+"/reviews", &b, map[string]any{"rating": 5})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body, _ := decodeBody(t, rr)
		assert.Equal(t, "Product already reviewed", body.Message)
	})

	t.Run("public list", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/products/"+p.ID+"/reviews", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body, data := decodeBody(t, rr)
		require.NotNil(t, body.Count)
		assert.Equal(t, 1, *body.Count)
		var rvs []market.Review
		require.NoError(t, json.Unmarshal(data, &rvs))
		assert.Equal(t, "Pours well", rvs[0].Comment)
	})

	t.Run("unknown product", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/products/"+uuid.NewString()+"/reviews", &b, map[string]any{"rating": 3})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCartEndpoints(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	p := e.seedProduct(t, uuid.NewString(), "Herbal tea tin", 18000, 20)

	t.Run("invalid payload", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/cart", &b, map[string]any{"product_id": "", "quantity": 0})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body, _ := decodeBody(t, rr)
		assert.Equal(t, "Invalid payload", body.Message)
	})

	t.Run("add then list", func(t *testing.T) {
		rr := e.do(t, http.MethodPost, "/cart", &b, map[string]any{"product_id": p.ID, "quantity": 2})
		require.Equal(t, http.StatusCreated, rr.Code)

		rr = e.do(t, http.MethodGet, "/cart/my", &b, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		_, data := decodeBody(t, rr)
		var items []market.CartItem
		require.NoError(t, json.Unmarshal(data, &items))
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("update and remove", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/cart/my", &b, nil)
		_, data := decodeBody(t, rr)
		var items []market.CartItem
		require.NoError(t, json.Unmarshal(data, &items))
		require.NotEmpty(t, items)

		rr = e.do(t, http.MethodPut, "/cart/"+items[0].ID, &b, map[string]int{"quantity": 5})
		require.Equal(t, http.StatusOK, rr.Code)

		rr = e.do(t, http.MethodDelete, "/cart/"+items[0].ID, &b, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = e.do(t, http.MethodDelete, "/cart/"+items[0].ID, &b, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestNotificationEndpoints(t *testing.T) {
	e := newEnv(t)
	b := actorOf(market.RoleBuyer)
	sl := actorOf(market.RoleSeller)
	p := e.seedProduct(t, sl.UserID, "Silk pouch", 32000, 5)

	rr := e.do(t, http.MethodPost, "/orders", &b, checkoutBody(p, 1))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(t, http.MethodGet, "/notifications", &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body, data := decodeBody(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 1, *body.Count)

	var feed market.NotificationFeed
	require.NoError(t, json.Unmarshal(data, &feed))
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, 1, feed.UnreadCount)
	id := feed.Notifications[0].ID

	rr = e.do(t, http.MethodPut, "/notifications/"+id+"/read", &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodPut, "/notifications/read-all", &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodDelete, "/notifications/"+id, &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodDelete, "/notifications/", &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestSellerProductEndpoints(t *testing.T) {
	e := newEnv(t)
	sl := actorOf(market.RoleSeller)

	rr := e.do(t, http.MethodPost, "/seller/products", &sl, map[string]any{
		"name": "Terrarium kit", "price_cents": 95000, "stock": 4,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	_, data := decodeBody(t, rr)
	var p market.Product
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, sl.UserID, p.SellerID)

	t.Run("buyer cannot create", func(t *testing.T) {
		b := actorOf(market.RoleBuyer)
		rr := e.do(t, http.MethodPost, "/seller/products", &b, map[string]any{"name": "x", "price_cents": 1})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	rr = e.do(t, http.MethodPut, "/seller/products/"+p.ID, &sl, map[string]any{"stock": 9})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/seller/products/", &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := decodeBody(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 1, *body.Count)

	rr = e.do(t, http.MethodDelete, "/seller/products/"+p.ID, &sl, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rr := e.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}
