package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/judyrop/viara-backend/app/accounts"
	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/app/cart"
	"github.com/judyrop/viara-backend/app/catalog"
	"github.com/judyrop/viara-backend/app/categories"
	"github.com/judyrop/viara-backend/app/inquiries"
	"github.com/judyrop/viara-backend/app/orders"
	"github.com/judyrop/viara-backend/models"
	"github.com/judyrop/viara-backend/notify"
)

// Options carries everything SetupRouter needs besides the database. Zero
// values are usable: no rate limiting, no SSO, no SMS, mail goes to the log.
type Options struct {
	Log         logr.Logger
	Limiter     auth.Counter
	SSO         auth.IDTokenVerifier
	Mailer      notify.Notifier
	SMS         notify.Notifier
	ResetTokens *accounts.ResetTokens
	Accounts    accounts.Settings
	MediaDir    string
	CORSOrigins []string
}

func SetupRouter(db *gorm.DB, opts Options) *gin.Engine {
	log := opts.Log
	if opts.Mailer == nil {
		opts.Mailer = notify.LogMailer{Log: log.WithName("mail")}
	}
	if opts.ResetTokens == nil {
		opts.ResetTokens = accounts.NewResetTokens(uuid.NewString(), 24*time.Hour)
	}
	if opts.MediaDir == "" {
		opts.MediaDir = "media"
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log.WithName("http")), cors.New(corsConfig(opts.CORSOrigins)))
	r.Static("/media", opts.MediaDir)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := models.NewUsersRepository(db)
	authn := auth.NewAuthenticator(users, opts.SSO, log.WithName("auth"))
	requireAuth := authn.RequireAuth()
	requireAdmin := auth.RequireAdmin()
	limit := auth.RateLimiter(opts.Limiter, log.WithName("ratelimit"))

	accountsHandler := accounts.NewAccountsHandler(users, opts.ResetTokens, opts.Mailer, opts.Accounts, log.WithName("accounts"))
	categoryHandler := categories.NewCategoryHandler(models.NewCategoriesRepository(db), log.WithName("categories"))
	catalogHandler := catalog.NewCatalogHandler(models.NewProductsRepository(db), opts.MediaDir, log.WithName("catalog"))
	cartHandler := cart.NewCartHandler(models.NewCartsRepository(db), log.WithName("cart"))
	orderService := orders.NewService(models.NewOrdersRepository(db), opts.Mailer, opts.SMS, log.WithName("orders"))
	orderHandler := orders.NewOrderHandler(orderService, log.WithName("orders"))
	inquiryHandler := inquiries.NewInquiryHandler(models.NewInquiriesRepository(db), log.WithName("inquiries"))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register/", limit, accountsHandler.HandleRegister)
		authGroup.POST("/login/", limit, accountsHandler.HandleLogin)
		authGroup.POST("/forgot-password/", limit, accountsHandler.HandleForgotPassword)
		authGroup.POST("/reset-password/", limit, accountsHandler.HandleResetPassword)
		authGroup.POST("/change-password/", requireAuth, accountsHandler.HandleChangePassword)
		authGroup.GET("/profile/", requireAuth, accountsHandler.HandleGetProfile)
		authGroup.PUT("/profile/", requireAuth, accountsHandler.HandleUpdateProfile)
	}

	categoryGroup := api.Group("/categories")
	{
		categoryGroup.GET("/", categoryHandler.HandleGetAll)
		categoryGroup.GET("/:id/", categoryHandler.HandleGet)
		categoryGroup.POST("/", requireAuth, requireAdmin, categoryHandler.HandleCreate)
		categoryGroup.PUT("/:id/", requireAuth, requireAdmin, categoryHandler.HandleUpdate)
		categoryGroup.DELETE("/:id/", requireAuth, requireAdmin, categoryHandler.HandleDelete)
	}

	productGroup := api.Group("/products")
	{
		productGroup.GET("/", catalogHandler.HandleGet)
		productGroup.GET("/:id/", catalogHandler.HandleGetProduct)
		productGroup.POST("/", requireAuth, requireAdmin, catalogHandler.HandleCreate)
		productGroup.PUT("/:id/", requireAuth, requireAdmin, catalogHandler.HandleUpdate)
		productGroup.PATCH("/:id/", requireAuth, requireAdmin, catalogHandler.HandleUpdate)
		productGroup.DELETE("/:id/", requireAuth, requireAdmin, catalogHandler.HandleDelete)
		productGroup.POST("/:id/image/", requireAuth, requireAdmin, catalogHandler.HandleUploadImage)
	}

	cartGroup := api.Group("/cart", requireAuth)
	{
		cartGroup.GET("/current/", cartHandler.HandleCurrent)
		cartGroup.POST("/add_item/", cartHandler.HandleAddItem)
		cartGroup.POST("/remove_item/", cartHandler.HandleRemoveItem)
		cartGroup.POST("/clear/", cartHandler.HandleClear)
	}

	orderGroup := api.Group("/orders", requireAuth)
	{
		orderGroup.GET("/", orderHandler.HandleList)
		orderGroup.POST("/", orderHandler.HandleCreateFromCart)
		orderGroup.POST("/create_from_cart/", orderHandler.HandleCreateFromCart)
		orderGroup.GET("/:id/", orderHandler.HandleGet)
		orderGroup.PATCH("/:id/", requireAdmin, orderHandler.HandleUpdateStatus)
		orderGroup.POST("/:id/cancel/", orderHandler.HandleCancel)
	}

	inquiryGroup := api.Group("/inquiries")
	{
		inquiryGroup.POST("/", inquiryHandler.HandleCreate)
		inquiryGroup.GET("/", requireAuth, requireAdmin, inquiryHandler.HandleGetAll)
		inquiryGroup.GET("/:id/", requireAuth, requireAdmin, inquiryHandler.HandleGet)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger(log logr.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Info("request failed", kv...)
			return
		}
		log.V(1).Info("request", kv...)
	}
}
