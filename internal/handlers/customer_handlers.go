package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/auth"
	"github.com/nutribowl/storefront/internal/models"
	"github.com/nutribowl/storefront/internal/store"
)

// RegisterCustomerInput is the body of POST /api/customers/register
type RegisterCustomerInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginCustomerInput is the body of POST /api/customers/login
type LoginCustomerInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterCustomer is the handler for POST /api/customers/register
func (h *Handlers) RegisterCustomer(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, valid phone, and password are required"})
		return
	}
	name := strings.TrimSpace(input.Name)
	phone := models.NormalizePhone(input.Phone)
	if name == "" || !models.IsValidMobile(phone) || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, valid phone, and password are required"})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.serverError(c, "Failed to register", err)
		return
	}

	// 3. --- Issue the First Access Token ---
	accessToken, err := auth.GenerateToken()
	if err != nil {
		h.serverError(c, "Failed to register", err)
		return
	}
	accessHash := auth.HashToken(accessToken)

	// 4. --- Save to Database ---
	customer := &models.Customer{
		Phone:        phone,
		Name:         name,
		PasswordHash: password.Hash,
		PasswordSalt: password.Salt,
		AccessHash:   &accessHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateCustomer(c.Request.Context(), h.DB, customer); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Account already exists"})
			return
		}
		h.serverError(c, "Failed to register", err)
		return
	}

	// 5. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"accessToken": accessToken,
		"profile":     models.CustomerProfile{Name: name, Phone: phone},
	})
}

// LoginCustomer is the handler for POST /api/customers/login
// A successful login replaces the stored token hash, so any token issued
// earlier stops working.
func (h *Handlers) LoginCustomer(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone and password required"})
		return
	}
	phone := models.NormalizePhone(input.Phone)
	if phone == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone and password required"})
		return
	}

	// 2. --- Find the Customer ---
	customer, err := store.GetCustomer(c.Request.Context(), h.DB, phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(c, "Failed to log in", err)
		return
	}

	// 3. --- Check the Password ---
	// Unknown phone and wrong password answer the same way.
	if customer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	stored := models.Password{Hash: customer.PasswordHash, Salt: customer.PasswordSalt}
	if !stored.Matches(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. --- Rotate the Access Token ---
	accessToken, err := auth.GenerateToken()
	if err != nil {
		h.serverError(c, "Failed to log in", err)
		return
	}
	if err := store.RotateAccessHash(c.Request.Context(), h.DB, phone, auth.HashToken(accessToken)); err != nil {
		h.serverError(c, "Failed to log in", err)
		return
	}

	// 5. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"accessToken": accessToken,
		"profile":     models.CustomerProfile{Name: customer.Name, Phone: phone},
	})
}
