package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/auth"
	"github.com/nutribowl/storefront/internal/checkout"
	"github.com/nutribowl/storefront/internal/models"
	"github.com/nutribowl/storefront/internal/store"
)

//
// --- Order Handlers ---
//

// Customer-side credential headers for GET /api/orders/customer
const (
	CustomerTokenHeader = "x-customer-token"
	OrderTokenHeader    = "x-order-token"
)

// PlaceOrder is the handler for POST /api/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Bind JSON ---
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// 2. --- Run the Checkout Transaction ---
	receipt, err := h.Checkout.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		var verr *checkout.Error
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "code": verr.Code})
			return
		}
		h.serverError(c, "Failed to create order", err)
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, receipt)
}

// ListOrders is the handler for GET /api/orders (admin)
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := store.ListOrders(c.Request.Context(), h.DB)
	if err != nil {
		h.serverError(c, "Failed to load orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListCustomerOrders is the handler for GET /api/orders/customer
// An account token unlocks every order for the phone; an order token only
// the orders it was issued with.
func (h *Handlers) ListCustomerOrders(c *gin.Context) {
	// 1. --- Read Phone & Tokens ---
	phone := models.NormalizePhone(c.Query("phone"))
	customerToken := c.GetHeader(CustomerTokenHeader)
	orderToken := c.GetHeader(OrderTokenHeader)
	if phone == "" || (customerToken == "" && orderToken == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone and token required"})
		return
	}

	ctx := c.Request.Context()
	var (
		orders []*models.Order
		err    error
	)

	if customerToken != "" {
		// 2a. --- Account Token ---
		ok, err := store.CustomerTokenMatches(ctx, h.DB, phone, auth.HashToken(customerToken))
		if err != nil {
			h.serverError(c, "Failed to load orders", err)
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		orders, err = store.ListOrdersByPhone(ctx, h.DB, phone)
		if err != nil {
			h.serverError(c, "Failed to load orders", err)
			return
		}
	} else {
		// 2b. --- Order Token ---
		orders, err = store.ListOrdersByAccessHash(ctx, h.DB, phone, auth.HashToken(orderToken))
		if err != nil {
			h.serverError(c, "Failed to load orders", err)
			return
		}
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusOK, orders)
}

// UpdateOrder is the handler for PATCH /api/orders/:id (admin)
func (h *Handlers) UpdateOrder(c *gin.Context) {
	orderID := c.Param("id")

	// 1. --- Bind JSON ---
	var upd models.OrderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// 2. --- Validate the Allow-Listed Fields ---
	if upd.Status != nil && *upd.Status == "" {
		upd.Status = nil
	}
	if upd.Status != nil && !upd.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "code": "invalid_status"})
		return
	}
	if upd.Phone != nil {
		phone := models.NormalizePhone(*upd.Phone)
		if !models.IsValidMobile(phone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone"})
			return
		}
		upd.Phone = &phone
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	if upd.PaymentMethod != nil && *upd.PaymentMethod != models.PaymentCOD {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method must be COD"})
		return
	}
	if upd.Total != nil && *upd.Total < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Total cannot be negative"})
		return
	}
	if upd.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updates provided"})
		return
	}

	// 3. --- Execute Update ---
	err := store.UpdateOrder(c.Request.Context(), h.DB, orderID, &upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, store.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Status change not allowed", "code": "invalid_transition"})
		default:
			h.serverError(c, "Failed to update order", err)
		}
		return
	}

	if upd.Status != nil {
		h.Metrics.StatusWritten(string(*upd.Status))
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
