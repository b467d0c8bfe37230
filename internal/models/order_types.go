package models

import (
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPendingConfirmation OrderStatus = "pending_confirmation"
	StatusConfirmed           OrderStatus = "confirmed"
	StatusDelivered           OrderStatus = "delivered"
	StatusCancelled           OrderStatus = "cancelled"
)

// Order types.
const (
	OrderTypeStore        = "store"
	OrderTypeSubscription = "subscription"
)

// PaymentCOD is the only payment method the storefront accepts.
const PaymentCOD = "COD"

// statusTransitions lists the states reachable from each non-terminal state.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingConfirmation: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusDelivered, StatusCancelled},
	StatusDelivered:           nil,
	StatusCancelled:           nil,
}

// IsValid reports whether s is one of the four known statuses.
func (s OrderStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether an order in status s may move to next.
// Re-writing the current status is allowed and has no effect.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Location is the optional drop-off pin captured at checkout.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Order is the model for the 'orders' table
type Order struct {
	ID              string      `json:"id" db:"id"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	Status          OrderStatus `json:"status" db:"status"`
	Type            string      `json:"type" db:"type"`
	Plan            *string     `json:"plan,omitempty" db:"plan"`
	DeliverySlot    *string     `json:"deliverySlot,omitempty" db:"delivery_slot"`
	ServiceArea     *string     `json:"serviceArea,omitempty" db:"service_area"`
	Name            string      `json:"name" db:"customer_name"`
	Phone           string      `json:"phone" db:"phone"`
	Address         string      `json:"address" db:"address"`
	PaymentMethod   string      `json:"paymentMethod" db:"payment_method"`
	Total           *int64      `json:"total" db:"total"`
	Location        *Location   `json:"location" db:"-"`
	OrderAccessHash string      `json:"-" db:"order_access_hash"`

	// Joins (Not in DB table, populated manually)
	Items []OrderItem `json:"items" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
// Name and Price are a snapshot taken at checkout; later catalog edits never touch them.
type OrderItem struct {
	ID      int64  `json:"-" db:"id"`
	OrderID string `json:"-" db:"order_id"`
	ItemID  string `json:"id" db:"item_id"`
	Name    string `json:"name" db:"name"`
	Qty     int    `json:"qty" db:"qty"`
	Price   int64  `json:"price" db:"price"`
	Total   int64  `json:"total" db:"total"`
}

// OrderUpdate is the admin allow-list for partial order edits.
// A nil field is left untouched.
type OrderUpdate struct {
	Status        *OrderStatus `json:"status"`
	Plan          *string      `json:"plan"`
	DeliverySlot  *string      `json:"deliverySlot"`
	ServiceArea   *string      `json:"serviceArea"`
	Name          *string      `json:"name"`
	Phone         *string      `json:"phone"`
	Address       *string      `json:"address"`
	PaymentMethod *string      `json:"paymentMethod"`
	Total         *int64       `json:"total"`
}

// IsEmpty reports whether the update carries no field at all.
func (u *OrderUpdate) IsEmpty() bool {
	return u.Status == nil && u.Plan == nil && u.DeliverySlot == nil && u.ServiceArea == nil &&
		u.Name == nil && u.Phone == nil && u.Address == nil && u.PaymentMethod == nil && u.Total == nil
}
