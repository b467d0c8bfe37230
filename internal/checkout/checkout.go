// Package checkout validates a cart, prices it against the live catalog and
// records the order with its items in a single transaction.
package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/auth"
	"github.com/nutribowl/storefront/internal/metrics"
	"github.com/nutribowl/storefront/internal/models"
	"github.com/nutribowl/storefront/internal/pricing"
	"github.com/nutribowl/storefront/internal/store"
)

// Code is a stable, machine-readable rejection reason.
type Code string

const (
	CodeInvalidContact     Code = "invalid_contact"
	CodeInvalidAddress     Code = "invalid_address"
	CodeUnsupportedPayment Code = "unsupported_payment"
	CodeEmptyCart          Code = "empty_cart"
	CodeInvalidItem        Code = "invalid_item"
)

const minAddressLength = 6

// Error is a validation failure. Nothing has been written when it is returned.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CartLine is one requested catalog item. Qty and WeightGrams arrive as
// plain JSON numbers and are checked for integrality here.
type CartLine struct {
	ID          string   `json:"id"`
	Qty         float64  `json:"qty"`
	WeightGrams *float64 `json:"weightGrams,omitempty"`
}

// Request is the checkout payload.
type Request struct {
	Name          string           `json:"name"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	PaymentMethod string           `json:"paymentMethod"`
	Type          string           `json:"type"`
	Items         []CartLine       `json:"items"`
	Location      *models.Location `json:"location"`
	AccessToken   string           `json:"accessToken"`
	Plan          *string          `json:"plan"`
	DeliverySlot  *string          `json:"deliverySlot"`
	ServiceArea   *string          `json:"serviceArea"`
	Total         *int64           `json:"total"`
}

// Receipt is returned once the order is committed. AccessToken is the only
// copy of the plaintext token the server ever hands out.
type Receipt struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	AccessToken string    `json:"accessToken"`
}

// Service places orders against DB.
type Service struct {
	DB      *sql.DB
	Metrics *metrics.Metrics

	now     func() time.Time
	orderID func(time.Time) string
}

// NewService wires a checkout service with the wall clock and time-based ids.
func NewService(db *sql.DB, m *metrics.Metrics) *Service {
	return &Service{
		DB:      db,
		Metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		orderID: NewOrderID,
	}
}

// NewOrderID returns "ord_<unix millis>_<8 hex>" for t.
func NewOrderID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("ord_%d_%s", t.UnixMilli(), suffix)
}

// validated is a request after normalisation.
type validated struct {
	name, phone, address, orderType string
}

func validate(req *Request) (*validated, *Error) {
	v := &validated{
		name:    strings.TrimSpace(req.Name),
		phone:   models.NormalizePhone(req.Phone),
		address: strings.TrimSpace(req.Address),
	}

	// 1. --- Contact ---
	if v.name == "" || !models.IsValidMobile(v.phone) {
		return nil, reject(CodeInvalidContact, "Valid name and phone are required")
	}

	// 2. --- Address ---
	if len([]rune(v.address)) < minAddressLength {
		return nil, reject(CodeInvalidAddress, "Delivery address is required")
	}

	// 3. --- Payment ---
	if req.PaymentMethod != models.PaymentCOD {
		return nil, reject(CodeUnsupportedPayment, "Payment method must be COD")
	}

	// 4. --- Cart ---
	v.orderType = models.OrderTypeStore
	if req.Type == models.OrderTypeSubscription {
		v.orderType = models.OrderTypeSubscription
	}
	if v.orderType == models.OrderTypeStore && len(req.Items) == 0 {
		return nil, reject(CodeEmptyCart, "Order items are required")
	}

	return v, nil
}

func invalidItem() *Error {
	return reject(CodeInvalidItem, "One or more items are invalid")
}

// wholeNumber converts a JSON number that must hold an integer.
func wholeNumber(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// priceCart prices every cart line against the catalog snapshot read in q.
func priceCart(ctx context.Context, q store.Querier, lines []CartLine) ([]*pricing.Line, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.ID != "" && !seen[l.ID] {
			seen[l.ID] = true
			ids = append(ids, l.ID)
		}
	}

	catalog, err := store.InventoryByIDs(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	priced := make([]*pricing.Line, 0, len(lines))
	for _, l := range lines {
		item, ok := catalog[l.ID]
		if !ok {
			return nil, invalidItem()
		}
		qty, ok := wholeNumber(l.Qty)
		if !ok || qty <= 0 {
			return nil, invalidItem()
		}

		var weight *int
		if l.WeightGrams != nil && *l.WeightGrams > 0 {
			w, ok := wholeNumber(*l.WeightGrams)
			if !ok && item.IsWeighted() {
				return nil, invalidItem()
			}
			weight = &w
		}

		line, err := pricing.PriceLine(item, qty, weight)
		if err != nil {
			return nil, invalidItem()
		}
		priced = append(priced, line)
	}
	return priced, nil
}

// PlaceOrder validates req, prices it and commits exactly one order, or
// writes nothing. Validation failures are returned as *Error.
func (s *Service) PlaceOrder(ctx context.Context, req *Request) (*Receipt, error) {
	receipt, err := s.placeOrder(ctx, req)
	if err != nil {
		var verr *Error
		if errors.As(err, &verr) {
			s.Metrics.CheckoutRejection(string(verr.Code))
		}
		return nil, err
	}
	return receipt, nil
}

func (s *Service) placeOrder(ctx context.Context, req *Request) (*Receipt, error) {
	// 1. --- Validate Contact, Payment & Cart ---
	v, verr := validate(req)
	if verr != nil {
		return nil, verr
	}

	// 2. --- Resolve the Access Token ---
	// A returning customer resends the token they already hold.
	accessToken := req.AccessToken
	if accessToken == "" {
		token, err := auth.GenerateToken()
		if err != nil {
			return nil, errors.Wrap(err, "generate order token")
		}
		accessToken = token
	}

	// 3. --- Begin Transaction ---
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin checkout")
	}
	defer tx.Rollback() // Safety net

	// 4. --- Price the Cart ---
	var lines []*pricing.Line
	if v.orderType == models.OrderTypeStore {
		lines, err = priceCart(ctx, tx, req.Items)
		if err != nil {
			return nil, err
		}
	}
	computed := pricing.Sum(lines)

	var total *int64
	switch {
	case computed > 0:
		total = &computed
	case req.Total != nil:
		total = req.Total
	case v.orderType == models.OrderTypeStore:
		total = &computed
	}

	// 5. --- Insert the Order Header ---
	createdAt := s.now().Truncate(time.Millisecond)
	order := &models.Order{
		ID:              s.orderID(createdAt),
		CreatedAt:       createdAt,
		Status:          models.StatusPendingConfirmation,
		Type:            v.orderType,
		Plan:            req.Plan,
		DeliverySlot:    req.DeliverySlot,
		ServiceArea:     req.ServiceArea,
		Name:            v.name,
		Phone:           v.phone,
		Address:         v.address,
		PaymentMethod:   models.PaymentCOD,
		Total:           total,
		Location:        req.Location,
		OrderAccessHash: auth.HashToken(accessToken),
	}
	if err := store.InsertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	// 6. --- Insert the Line Snapshots ---
	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = models.OrderItem{ItemID: l.ItemID, Name: l.Name, Qty: l.Qty, Price: l.UnitPrice, Total: l.Total}
	}
	if err := store.InsertOrderItems(ctx, tx, order.ID, items); err != nil {
		return nil, err
	}

	// 7. --- Commit ---
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit checkout")
	}

	s.Metrics.OrderPlaced(order.Type)
	return &Receipt{ID: order.ID, CreatedAt: createdAt, AccessToken: accessToken}, nil
}
