package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/empowher/marketplace/internal/market"
)

const orderCols = `id, order_number, order_ref, buyer_id, buyer_name, buyer_phone,
	street, city, state, zip_code, country,
	payment_method, payment_status, payment_ref,
	items_cents, tax_cents, shipping_cents, total_cents,
	status, tracking_number, delivered_at, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*market.Order, error) {
	var o market.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.OrderRef, &o.BuyerID, &o.BuyerName, &o.BuyerPhone,
		&o.DeliveryAddress.Street, &o.DeliveryAddress.City, &o.DeliveryAddress.State,
		&o.DeliveryAddress.ZipCode, &o.DeliveryAddress.Country,
		&o.PaymentMethod, &o.PaymentStatus, &o.PaymentRef,
		&o.ItemsCents, &o.TaxCents, &o.ShippingCents, &o.TotalCents,
		&o.Status, &o.TrackingNumber, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func loadItems(ctx context.Context, q querier, orderIDs []string) (map[string][]market.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, seller_id, product_name, product_image, quantity, price_cents
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]market.OrderItem{}
	for rows.Next() {
		var it market.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SellerID,
			&it.ProductName, &it.ProductImage, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func loadOrder(ctx context.Context, q querier, id string) (*market.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	items, err := loadItems(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

// CreateOrder assigns the order number from the sequence counter and
// persists the order, its item snapshots and the fan-out notifications in
// one transaction. The increment happens inside that transaction, so a
// rollback reverts it too: refs neither skip nor repeat.
func (s *Store) CreateOrder(ctx context.Context, o *market.Order, notify market.NotifyFunc) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var num int64
	err = tx.QueryRow(ctx, `
		INSERT INTO sequences(name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, market.OrderSequence).Scan(&num)
	if err != nil {
		return err
	}
	o.OrderNumber = num
	o.OrderRef = market.FormatOrderRef(num)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, order_ref, buyer_id, buyer_name, buyer_phone,
			street, city, state, zip_code, country,
			payment_method, payment_status, payment_ref,
			items_cents, tax_cents, shipping_cents, total_cents,
			status, tracking_number, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		o.ID, o.OrderNumber, o.OrderRef, o.BuyerID, o.BuyerName, o.BuyerPhone,
		o.DeliveryAddress.Street, o.DeliveryAddress.City, o.DeliveryAddress.State,
		o.DeliveryAddress.ZipCode, o.DeliveryAddress.Country,
		o.PaymentMethod, o.PaymentStatus, o.PaymentRef,
		o.ItemsCents, o.TaxCents, o.ShippingCents, o.TotalCents,
		o.Status, o.TrackingNumber, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, seller_id, product_name, product_image, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.ID, it.OrderID, it.ProductID, it.SellerID, it.ProductName, it.ProductImage, it.Quantity, it.PriceCents)
		if err != nil {
			return err
		}
	}

	if notify != nil {
		if err := insertNotifications(ctx, tx, notify(o, nil)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Order(ctx context.Context, id string) (*market.Order, error) {
	return loadOrder(ctx, s.DB, id)
}

func (s *Store) OrdersByBuyer(ctx context.Context, buyerID string) ([]market.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC`, buyerID)
}

func (s *Store) OrdersBySeller(ctx context.Context, sellerID string) ([]market.Order, error) {
	return s.listOrders(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE id IN (SELECT order_id FROM order_items WHERE seller_id=$1)
		ORDER BY created_at DESC`, sellerID)
}

func (s *Store) listOrders(ctx context.Context, sql string, args ...any) ([]market.Order, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	items, err := loadItems(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// SetStatus locks the order row, verifies the current status still equals
// from and applies the write. Losing a race surfaces as an
// InvalidTransitionError carrying the actual status.
func (s *Store) SetStatus(ctx context.Context, orderID string, from, to market.Status, upd market.StatusUpdate, notify market.NotifyFunc) (*market.Order, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current market.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		return nil, notFound(err)
	}
	if current != from {
		return nil, &market.InvalidTransitionError{From: current, To: to}
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders SET status=$2,
			tracking_number = COALESCE($3, tracking_number),
			delivered_at    = COALESCE($4, delivered_at),
			payment_ref     = COALESCE($5, payment_ref),
			payment_status  = COALESCE($6, payment_status),
			updated_at      = now()
		WHERE id=$1`,
		orderID, to, upd.TrackingNumber, upd.DeliveredAt, upd.PaymentRef, upd.PaymentStatus)
	if err != nil {
		return nil, err
	}

	o, err := loadOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if notify != nil {
		if err := insertNotifications(ctx, tx, notify(o, nil)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ConfirmItems drives pending->confirmed with the stock hold. Each line's
// decrement is conditional on remaining stock covering the quantity, so
// concurrent confirms can never push stock negative; any shortfall rolls
// the whole transaction back and the order stays pending.
func (s *Store) ConfirmItems(ctx context.Context, orderID, sellerID string, notify market.NotifyFunc) (*market.Order, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current market.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		return nil, notFound(err)
	}
	if current != market.StatusPending {
		return nil, &market.InvalidTransitionError{From: current, To: market.StatusConfirmed}
	}

	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM order_items
		WHERE order_id=$1 AND ($2 = '' OR seller_id=$2)
		ORDER BY id`, orderID, sellerID)
	if err != nil {
		return nil, err
	}
	type line struct {
		productID string
		qty       int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.qty); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var exhausted []market.Product
	for _, l := range lines {
		var p market.Product
		err := tx.QueryRow(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id=$1 AND stock >= $2
			RETURNING id, seller_id, name, stock`,
			l.productID, l.qty).Scan(&p.ID, &p.SellerID, &p.Name, &p.Stock)
		if errors.Is(err, pgx.ErrNoRows) {
			// Conditional update matched nothing: product gone or short.
			var name string
			var stock int
			lookupErr := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1`, l.productID).Scan(&name, &stock)
			if errors.Is(lookupErr, pgx.ErrNoRows) {
				continue // product deleted after ordering; nothing to hold
			}
			if lookupErr != nil {
				return nil, lookupErr
			}
			return nil, &market.InsufficientStockError{ProductName: name, Available: stock}
		}
		if err != nil {
			return nil, err
		}
		if p.Stock <= 0 {
			if _, err := tx.Exec(ctx, `UPDATE products SET stock = 0, is_active = FALSE WHERE id=$1`, p.ID); err != nil {
				return nil, err
			}
			p.Stock = 0
			p.IsActive = false
			exhausted = append(exhausted, p)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		orderID, market.StatusConfirmed)
	if err != nil {
		return nil, err
	}

	o, err := loadOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if notify != nil {
		if err := insertNotifications(ctx, tx, notify(o, exhausted)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}
