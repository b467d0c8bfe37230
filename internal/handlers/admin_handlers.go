package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutribowl/storefront/internal/auth"
)

// AdminLoginInput is the body of POST /api/admin/login
type AdminLoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin is the handler for POST /api/admin/login
// It trades the static admin credentials for the configured API key.
func (h *Handlers) AdminLogin(c *gin.Context) {
	// 1. --- Bind JSON ---
	var input AdminLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 2. --- Check Both Fields ---
	// Both comparisons always run so timing does not reveal which one failed.
	userOK := auth.ConstantTimeEqual(input.Username, h.Config.Admin.Username)
	passOK := auth.ConstantTimeEqual(input.Password, h.Config.Admin.Password)
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{"ok": true, "adminKey": h.Config.Admin.APIKey})
}
