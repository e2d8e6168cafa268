package handlers

import (
	"log"
	"net/http"
	"time"

	"go-bizpos/internal/middleware"
	"go-bizpos/internal/pos"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	CORSOrigins       []string
	AllowRegistration bool
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)
	r.Static("/uploads", h.UploadDir)

	// --- FEATURE FLAG: Registration ---
	if cfg.AllowRegistration {
		r.POST("/register", h.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
		log.Println("📈 /metrics endpoint registered")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Issuer))
	{
		api.GET("/products", h.GetProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/scan/:barcode", h.ScanProduct)
		api.GET("/services", h.GetServices)
		api.GET("/customers", h.SearchCustomers)
		api.POST("/customers", h.AddCustomer)

		cart := api.Group("/pos")
		{
			cart.GET("/cart", h.GetCart)
			cart.DELETE("/cart", h.ClearCart)
			cart.POST("/cart/items", h.AddCartItem)
			cart.PATCH("/cart/items/:type/:id", h.UpdateCartItem)
			cart.DELETE("/cart/items/:type/:id", h.RemoveCartItem)
			cart.PUT("/cart/discount", h.SetDiscount)
			cart.PUT("/cart/customer", h.SetCustomer)
			cart.PUT("/cart/payment", h.SetPayment)
			cart.POST("/checkout", h.Checkout)
		}
		api.GET("/sales/:id", h.GetSale)

		register := api.Group("/register")
		{
			register.GET("/today", h.TodayRegister)
			register.POST("/open", h.OpenRegister)
			register.GET("/history", h.RegisterHistory)
			register.GET("/:id", h.GetRegister)
			register.POST("/:id/close", h.CloseRegister)
		}

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(pos.RoleAdmin))
		{
			admin.POST("/ask", h.AskAI)
			admin.POST("/upload", h.UploadImage)
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.GET("/products/:id/movements", h.ListMovements)
			admin.POST("/products/:id/movements", h.RecordMovement)
			admin.POST("/services", h.AddService)
			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
		}
	}

	return r
}
