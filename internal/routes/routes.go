package routes

import (
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/handlers"
	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/aman7661/sumitTradingCompany/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CORSMiddleware tells the browser that the storefront origin may call us.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow only the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Vary", "Origin")

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use ("Authorization" carries the JWT)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// 5. Preflight requests end here with 204 No Content
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Deps is what the router needs besides the handlers.
type Deps struct {
	Tokens      middleware.TokenValidator
	Users       middleware.UserLookup
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	FrontendURL string
	// TestPayments routes the synthetic paid-order endpoint.
	TestPayments bool
}

func SetupRouter(h *handlers.Handlers, d Deps) *gin.Engine {
	router := gin.New()

	// --- Global middleware. CORS runs first so preflights short-circuit ---
	router.Use(
		CORSMiddleware(d.FrontendURL),
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Metrics(d.Metrics),
		gin.Recovery(),
	)

	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	router.Static("/uploads", h.UploadDir)

	authRequired := middleware.AuthMiddleware(d.Tokens)
	adminOnly := middleware.AdminMiddleware(d.Users, d.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		// --- Auth Routes ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/profile", authRequired, h.GetProfile)

		// --- Cart (client-local, priced on demand) ---
		api.POST("/cart/quote", h.QuoteCart)

		// --- Product Routes ---
		products := api.Group("/products")
		{
			products.GET("", h.GetProducts)
			products.GET("/featured", h.GetFeaturedProducts)
			products.GET("/categories", h.GetAllCategories)
			products.GET("/:id", h.GetProduct)

			// Admin product routes. Static segments sit beside /:id.
			admin := products.Group("", authRequired, adminOnly)
			{
				admin.GET("/admin/all", h.GetAllProductsAdmin)
				admin.GET("/admin/low-stock", h.GetLowStockProducts)
				admin.POST("", h.CreateProduct)
				admin.POST("/upload", h.UploadProductImage)
				admin.PUT("/:id", h.UpdateProduct)
				admin.PUT("/:id/toggle", h.ToggleProductVisibility)
				admin.DELETE("/:id", h.DeleteProduct)
			}
		}

		// --- Order Routes (Login Required) ---
		orders := api.Group("/orders", authRequired)
		{
			orders.GET("", h.GetMyOrders)
			orders.POST("", h.CreateOrder)
			orders.GET("/:id", h.GetOrderDetails)
			orders.PUT("/:id/cancel", h.CancelOrder)

			// --- Admin-Only Order Routes ---
			admin := orders.Group("/admin", adminOnly)
			{
				admin.GET("/all", h.GetAllOrdersAdmin)
				admin.GET("/stats", h.GetOrderStats)
				admin.GET("/:id", h.GetOrderAdmin)
				admin.PUT("/:id/status", h.UpdateOrderStatus)
				admin.PUT("/bulk-update", h.BulkUpdateOrderStatus)
			}
		}

		// --- Payment Routes (Login Required) ---
		payments := api.Group("/payments", authRequired)
		{
			payments.POST("/create-stripe-intent", h.CreateStripeIntent)
			payments.POST("/verify-stripe", h.VerifyStripePayment)
			if d.TestPayments {
				payments.POST("/create-test-stripe-order", h.CreateTestStripeOrder)
			}
		}
	}

	return router
}
