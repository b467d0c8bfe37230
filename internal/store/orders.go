package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/models"
)

const orderColumns = `id, created_at, status, type, plan, delivery_slot, service_area,
	customer_name, phone, address, payment_method, total, location_lat, location_lng, order_access_hash`

// InsertOrder writes the order header. It must run inside the checkout transaction.
func InsertOrder(ctx context.Context, q Querier, o *models.Order) error {
	var (
		total    sql.NullInt64
		lat, lng sql.NullFloat64
	)
	if o.Total != nil {
		total = sql.NullInt64{Int64: *o.Total, Valid: true}
	}
	if o.Location != nil {
		lat = sql.NullFloat64{Float64: o.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: o.Location.Lng, Valid: true}
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query,
		o.ID, o.CreatedAt, string(o.Status), o.Type,
		nullString(o.Plan), nullString(o.DeliverySlot), nullString(o.ServiceArea),
		o.Name, o.Phone, o.Address, o.PaymentMethod, total, lat, lng, o.OrderAccessHash,
	)
	if err != nil {
		if isDuplicate(err) {
			return errors.Wrapf(ErrConflict, "order id %s", o.ID)
		}
		return errors.Wrap(err, "insert order")
	}
	return nil
}

// InsertOrderItems writes the line snapshots of one order.
func InsertOrderItems(ctx context.Context, q Querier, orderID string, items []models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, item_id, name, qty, price, total)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, item := range items {
		if _, err := q.ExecContext(ctx, query, orderID, item.ItemID, item.Name, item.Qty, item.Price, item.Total); err != nil {
			return errors.Wrapf(err, "insert order item %s", item.ItemID)
		}
	}
	return nil
}

func scanOrder(rows *sql.Rows) (*models.Order, error) {
	var (
		o                                   models.Order
		status                              string
		plan, slot, area                    sql.NullString
		name, phone, address, payment, hash sql.NullString
		total                               sql.NullInt64
		lat, lng                            sql.NullFloat64
	)
	if err := rows.Scan(
		&o.ID, &o.CreatedAt, &status, &o.Type, &plan, &slot, &area,
		&name, &phone, &address, &payment, &total, &lat, &lng, &hash,
	); err != nil {
		return nil, errors.Wrap(err, "scan order row")
	}

	o.Status = models.OrderStatus(status)
	o.Plan = stringPtr(plan)
	o.DeliverySlot = stringPtr(slot)
	o.ServiceArea = stringPtr(area)
	o.Name = name.String
	o.Phone = phone.String
	o.Address = address.String
	o.PaymentMethod = payment.String
	o.OrderAccessHash = hash.String
	if total.Valid {
		t := total.Int64
		o.Total = &t
	}
	if lat.Valid && lng.Valid {
		o.Location = &models.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func queryOrders(ctx context.Context, q Querier, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	if err := attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the line items of every order in one query.
func attachItems(ctx context.Context, q Querier, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*models.Order, len(orders))
	args := make([]interface{}, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		args[i] = o.ID
	}

	query := `
		SELECT id, order_id, item_id, name, qty, price, total
		FROM order_items
		WHERE order_id IN (` + placeholders(len(orders)) + `)
		ORDER BY id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "query order items")
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.Name, &item.Qty, &item.Price, &item.Total); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return errors.Wrap(rows.Err(), "iterate order items")
}

// ListOrders returns every order, newest first, with its items.
func ListOrders(ctx context.Context, q Querier) ([]*models.Order, error) {
	return queryOrders(ctx, q, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
}

// ListOrdersByPhone returns the orders placed with phone, newest first.
func ListOrdersByPhone(ctx context.Context, q Querier, phone string) ([]*models.Order, error) {
	return queryOrders(ctx, q,
		"SELECT "+orderColumns+" FROM orders WHERE phone = ? ORDER BY created_at DESC", phone)
}

// ListOrdersByAccessHash returns the orders for phone that were issued the
// order-scoped token whose hash is accessHash.
func ListOrdersByAccessHash(ctx context.Context, q Querier, phone, accessHash string) ([]*models.Order, error) {
	return queryOrders(ctx, q,
		"SELECT "+orderColumns+" FROM orders WHERE phone = ? AND order_access_hash = ? ORDER BY created_at DESC",
		phone, accessHash)
}

// UpdateOrder applies the non-nil fields of upd to one order. A status
// change is checked against the current status under a row lock.
func UpdateOrder(ctx context.Context, db *sql.DB, id string, upd *models.OrderUpdate) error {
	// 1. --- Begin Transaction ---
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin order update")
	}
	defer tx.Rollback() // Safety net

	// 2. --- Lock the Order Row ---
	var current string
	err = tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ? FOR UPDATE", id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return errors.Wrapf(err, "load order %s", id)
	}

	// 3. --- Check the Transition ---
	if upd.Status != nil && !models.OrderStatus(current).CanTransitionTo(*upd.Status) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", current, *upd.Status)
	}

	// 4. --- Build the Allow-Listed SET Clause ---
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Plan != nil {
		add("plan", *upd.Plan)
	}
	if upd.DeliverySlot != nil {
		add("delivery_slot", *upd.DeliverySlot)
	}
	if upd.ServiceArea != nil {
		add("service_area", *upd.ServiceArea)
	}
	if upd.Name != nil {
		add("customer_name", *upd.Name)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.PaymentMethod != nil {
		add("payment_method", *upd.PaymentMethod)
	}
	if upd.Total != nil {
		add("total", *upd.Total)
	}
	if len(sets) == 0 {
		return errors.New("no order fields to update")
	}

	// 5. --- Execute Update ---
	args = append(args, id)
	query := "UPDATE orders SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "update order %s", id)
	}

	// 6. --- Commit ---
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit order update")
	}
	return nil
}
