package handlers

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutribowl/storefront/internal/auth"
)

var (
	inventoryCols = []string{"id", "sku", "name", "category", "subcategory", "unit", "weight_grams", "price", "image", "tags"}
	orderCols     = []string{"id", "created_at", "status", "type", "plan", "delivery_slot", "service_area",
		"customer_name", "phone", "address", "payment_method", "total", "location_lat", "location_lng", "order_access_hash"}
	itemCols = []string{"id", "order_id", "item_id", "name", "qty", "price", "total"}
)

func orderPayload() gin.H {
	return gin.H{
		"name":          "Asha",
		"phone":         "9876543210",
		"address":       "12 MG Road, Pune",
		"paymentMethod": "COD",
		"items":         []gin.H{{"id": "apple-1kg", "qty": 2, "weightGrams": 500}},
	}
}

func TestPlaceOrderCreated(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM inventory WHERE id IN (?)")).
		WithArgs("apple-1kg").
		WillReturnRows(sqlmock.NewRows(inventoryCols).
			AddRow("apple-1kg", "APL", "Apple", "fruit", "regular", "kg", 1000, 200, "", nil))
	e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(1, 1))
	e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(sqlmock.AnyArg(), "apple-1kg", "Apple (500 gm)", 2, 100, 200).
		WillReturnResult(sqlmock.NewResult(1, 1))
	e.mock.ExpectCommit()

	w := e.do(http.MethodPost, "/orders", orderPayload(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Regexp(t, `^ord_\d+_[0-9a-f]{8}$`, body["id"])
	assert.NotEmpty(t, body["createdAt"])
	assert.Len(t, body["accessToken"], 48)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestPlaceOrderValidationError(t *testing.T) {
	e := newTestEnv(t)

	payload := orderPayload()
	payload["paymentMethod"] = "CARD"
	w := e.do(http.MethodPost, "/orders", payload, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Payment method must be COD","code":"unsupported_payment"}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.h.Metrics.CheckoutRejected.WithLabelValues("unsupported_payment")))
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestPlaceOrderInvalidItem(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM inventory WHERE id IN (?)")).
		WithArgs("apple-1kg").
		WillReturnRows(sqlmock.NewRows(inventoryCols))
	e.mock.ExpectRollback()

	w := e.do(http.MethodPost, "/orders", orderPayload(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"One or more items are invalid","code":"invalid_item"}`, w.Body.String())
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestPlaceOrderDatabaseFailure(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectBegin().WillReturnError(assert.AnError)

	w := e.do(http.MethodPost, "/orders", orderPayload(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to create order"}`, w.Body.String())
}

func TestPlaceOrderMalformedBody(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/orders", `{"items": "lots"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrders(t *testing.T) {
	e := newTestEnv(t)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	e.mock.ExpectQuery(regexp.QuoteMeta("FROM orders ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("ord_1", created, "confirmed", "store", nil, nil, nil,
				"Asha", "9876543210", "12 MG Road", "COD", 200, 18.52, 73.85, "hash"))
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM order_items")).
		WithArgs("ord_1").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "ord_1", "apple-1kg", "Apple (500 gm)", 2, 100, 200))

	w := e.do(http.MethodGet, "/orders", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"id":"ord_1","createdAt":"2026-02-01T10:00:00Z","status":"confirmed","type":"store",
		"name":"Asha","phone":"9876543210","address":"12 MG Road","paymentMethod":"COD","total":200,
		"location":{"lat":18.52,"lng":73.85},
		"items":[{"id":"apple-1kg","name":"Apple (500 gm)","qty":2,"price":100,"total":200}]
	}]`, w.Body.String())
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestListCustomerOrdersNeedsPhoneAndToken(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/orders/customer?phone=9876543210", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Phone and token required", decode(t, w)["error"])

	w = e.do(http.MethodGet, "/orders/customer", nil, map[string]string{OrderTokenHeader: "tok"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCustomerOrdersStaleAccountToken(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM customers WHERE phone = ? AND access_hash = ?")).
		WithArgs("9876543210", auth.HashToken("stale")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	w := e.do(http.MethodGet, "/orders/customer?phone=9876543210", nil, map[string]string{CustomerTokenHeader: "stale"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestListCustomerOrdersAccountToken(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM customers WHERE phone = ? AND access_hash = ?")).
		WithArgs("9876543210", auth.HashToken("current")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE phone = ? ORDER BY created_at DESC")).
		WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows(orderCols))

	w := e.do(http.MethodGet, "/orders/customer?phone=%2B91%2098765%2043210", nil,
		map[string]string{CustomerTokenHeader: "current"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestListCustomerOrdersOrderToken(t *testing.T) {
	e := newTestEnv(t)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	e.mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE phone = ? AND order_access_hash = ?")).
		WithArgs("9876543210", auth.HashToken("guest")).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("ord_9", created, "pending_confirmation", "store", nil, nil, nil,
				"Asha", "9876543210", "12 MG Road", "COD", 1497, nil, nil, auth.HashToken("guest")))
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM order_items")).
		WithArgs("ord_9").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, "ord_9", "combo-box", "Combo Box", 3, 499, 1497))

	w := e.do(http.MethodGet, "/orders/customer?phone=9876543210", nil, map[string]string{OrderTokenHeader: "guest"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), auth.HashToken("guest"))
	assert.Contains(t, w.Body.String(), `"id":"ord_9"`)
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestUpdateOrderRejectsUnknownStatus(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPatch, "/orders/ord_1", gin.H{"status": "teleported"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid status","code":"invalid_status"}`, w.Body.String())
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestUpdateOrderNoUpdates(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPatch, "/orders/ord_1", gin.H{"id": "ord_2"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No updates provided", decode(t, w)["error"])
}

func TestUpdateOrderRejectsBadFields(t *testing.T) {
	e := newTestEnv(t)

	for _, body := range []gin.H{
		{"phone": "12345"},
		{"paymentMethod": "UPI"},
		{"name": "   "},
		{"total": -5},
	} {
		w := e.do(http.MethodPatch, "/orders/ord_1", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = ? FOR UPDATE")).
		WithArgs("ord_1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending_confirmation"))
	e.mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ?, phone = ? WHERE id = ?")).
		WithArgs("confirmed", "9876543210", "ord_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	e.mock.ExpectCommit()

	w := e.do(http.MethodPatch, "/orders/ord_1", gin.H{"status": "confirmed", "phone": "+91-98765-43210"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.h.Metrics.OrderStatusWrites.WithLabelValues("confirmed")))
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestUpdateOrderNotFound(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = ? FOR UPDATE")).
		WithArgs("ord_x").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	e.mock.ExpectRollback()

	w := e.do(http.MethodPatch, "/orders/ord_x", gin.H{"status": "confirmed"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", decode(t, w)["error"])
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestUpdateOrderDisallowedTransition(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectBegin()
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders WHERE id = ? FOR UPDATE")).
		WithArgs("ord_1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("delivered"))
	e.mock.ExpectRollback()

	w := e.do(http.MethodPatch, "/orders/ord_1", gin.H{"status": "confirmed"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decode(t, w)["code"])
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestGetDashboardStats(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "revenue"}).
			AddRow("pending_confirmation", 3, 900).
			AddRow("delivered", 2, 1497))
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM inventory")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	w := e.do(http.MethodGet, "/orders/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{
		"ordersByStatus":{"pending_confirmation":3,"confirmed":0,"delivered":2,"cancelled":0},
		"deliveredRevenue":1497,"catalogItems":10,"customers":4
	}`, w.Body.String())
	require.NoError(t, e.mock.ExpectationsWereMet())
}
