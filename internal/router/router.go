package router

import (
	"time"

	"cardapio/internal/cashier"
	"cardapio/internal/config"
	"cardapio/internal/handler"
	"cardapio/internal/middleware"
	"cardapio/internal/repository"
	"cardapio/internal/service"
	"cardapio/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis; the cashier
// manager is built in main because its lifecycle outlives the HTTP layer.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, manager *cashier.Manager, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	saleHistoryRepo := repository.NewSaleHistoryRepository(db)
	sessionArchiveRepo := repository.NewSessionArchiveRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo)
	clientSvc := service.NewClientService(clientRepo)
	couponSvc := service.NewCouponService(couponRepo)
	reportSvc := service.NewReportService(saleHistoryRepo, sessionArchiveRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	categoriesH := handler.NewCategoryHandler(categorySvc)
	productsH := handler.NewProductHandler(productSvc)
	clientsH := handler.NewClientHandler(clientSvc)
	couponsH := handler.NewCouponHandler(couponSvc)
	reportsH := handler.NewReportHandler(reportSvc)
	cashierH := handler.NewCashierHandler(manager, dispatcher, cfg.ReportEmail)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: admin, cashier, waiter — declared per-endpoint
		operating := middleware.RequireRole("admin", "cashier", "waiter")
		tillAccess := middleware.RequireRole("admin", "cashier")

		cx := v1.Group("/cashier")
		{
			cx.GET("", operating, cashierH.State)
			cx.POST("/open", tillAccess, cashierH.Open)
			cx.POST("/close", tillAccess, cashierH.CloseSession)
			cx.POST("/withdrawals", tillAccess, cashierH.Withdraw)
			cx.POST("/supplies", tillAccess, cashierH.Supply)
			cx.POST("/clear-error", tillAccess, cashierH.ClearError)

			cx.POST("/sales", operating, cashierH.CreateSale)
			cx.GET("/sales", operating, cashierH.ActiveSales)
			cx.GET("/sales/history", operating, cashierH.SalesHistory)
			cx.PATCH("/sales/:id", operating, cashierH.UpdateSale)
			cx.POST("/sales/:id/pay", tillAccess, cashierH.PaySale)
			cx.POST("/sales/:id/cancel", tillAccess, cashierH.CancelSale)

			cx.GET("/tables", operating, cashierH.ListTables)
			cx.POST("/tables", operating, cashierH.OpenTable)
			cx.POST("/tables/:id/close", operating, cashierH.CloseTable)
		}

		// Products — everyone reads (menu sync), admin writes
		v1.GET("/products", operating, productsH.List)
		v1.GET("/products/:id", operating, productsH.Get)
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
			prods.PATCH("/:id/reactivate", productsH.Reactivate)
		}

		// Categories — everyone reads, admin writes
		v1.GET("/categories", operating, categoriesH.List)
		cats := v1.Group("/categories", middleware.RequireRole("admin"))
		{
			cats.POST("", categoriesH.Create)
			cats.PUT("/:id", categoriesH.Update)
			cats.DELETE("/:id", categoriesH.Deactivate)
		}

		clients := v1.Group("/clients", tillAccess)
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Deactivate)
		}

		// Coupons — validation/redemption at the till, management by admin
		v1.POST("/coupons/validate", tillAccess, couponsH.Validate)
		v1.POST("/coupons/redeem", tillAccess, couponsH.Redeem)
		coupons := v1.Group("/coupons", middleware.RequireRole("admin"))
		{
			coupons.POST("", couponsH.Create)
			coupons.GET("", couponsH.List)
			coupons.PUT("/:id", couponsH.Update)
			coupons.DELETE("/:id", couponsH.Deactivate)
		}

		reports := v1.Group("/reports", middleware.RequireRole("admin"))
		{
			reports.GET("/sales", reportsH.Sales)
			reports.GET("/sessions", reportsH.Sessions)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.PATCH("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
