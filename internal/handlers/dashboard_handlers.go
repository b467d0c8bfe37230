package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutribowl/storefront/internal/store"
)

//
// --- Admin Dashboard Stats ---
//

// GetDashboardStats returns KPI data for the admin dashboard
// GET /api/orders/stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats, err := store.LoadDashboardStats(c.Request.Context(), h.DB)
	if err != nil {
		h.serverError(c, "Failed to load dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
