package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nutribowl/storefront/internal/handlers"
	"github.com/nutribowl/storefront/internal/middleware"
)

// CORSMiddleware echoes the request origin when it is allowed.
// An empty allow-list allows every origin.
func CORSMiddleware(allowed []string) gin.HandlerFunc {
	allowSet := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		allowSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (len(allowSet) == 0 || allowSet[origin]) {
			// 1. Allow the caller's origin
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")

			// 2. Allow the headers we actually use (the admin key and the customer tokens)
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, x-admin-key, x-customer-token, x-order-token")

			// 3. Allow the HTTP methods we use in our API
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}

		// 4. Handle the "Preflight" OPTIONS request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter mounts every route under /api. gatherer backs /metrics.
func SetupRouter(h *handlers.Handlers, gatherer prometheus.Gatherer) (*gin.Engine, error) {
	router := gin.New()

	// Rate limits key on ClientIP, so X-Forwarded-For only counts from listed proxies.
	if err := router.SetTrustedProxies(h.Config.TrustedProxies()); err != nil {
		return nil, errors.Wrap(err, "trusted proxies")
	}

	// --- Global Middleware ---
	router.Use(middleware.Recovery(h.Logger))
	router.Use(middleware.RequestLogger(h.Logger, h.Metrics))
	router.Use(CORSMiddleware(h.Config.AllowedOrigins()))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(middleware.RateLimit(middleware.APILimit))
	{
		api.GET("/health", h.Health)

		authLimit := middleware.RateLimit(middleware.AuthLimit)
		adminOnly := middleware.AdminMiddleware(h.Config.Admin.APIKey)

		// --- Admin Routes ---
		api.POST("/admin/login", authLimit, h.AdminLogin)

		// --- Customer Routes ---
		customers := api.Group("/customers")
		customers.Use(authLimit)
		{
			customers.POST("/register", h.RegisterCustomer)
			customers.POST("/login", h.LoginCustomer)
		}

		// --- Inventory Routes ---
		api.GET("/inventory", h.ListInventory)
		inventory := api.Group("/inventory")
		inventory.Use(adminOnly)
		{
			inventory.PUT("", h.ReplaceInventory)
			inventory.POST("/reset", h.ResetInventory)
			inventory.PATCH("/:id", h.UpdateInventoryItem)
			inventory.DELETE("/:id", h.DeleteInventoryItem)
		}

		// --- Order Routes ---
		orders := api.Group("/orders")
		orders.Use(middleware.RateLimit(middleware.OrderLimit))
		{
			orders.POST("", h.PlaceOrder)
			orders.GET("/customer", h.ListCustomerOrders)
			orders.GET("", adminOnly, h.ListOrders)
			orders.GET("/stats", adminOnly, h.GetDashboardStats)
			orders.PATCH("/:id", adminOnly, h.UpdateOrder)
		}
	}

	return router, nil
}
