package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"amlak-system/config"
	"amlak-system/internal/database"
	"amlak-system/internal/handlers"
	"amlak-system/internal/middleware"
	"amlak-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	authHandler := handlers.NewAuthHandler(db, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
	assetHandler := handlers.NewAssetHandler(db, redisClient)
	unitHandler := handlers.NewUnitHandler(db, redisClient)
	tenantHandler := handlers.NewTenantHandler(db, redisClient)
	contractHandler := handlers.NewContractHandler(db, redisClient, cfg.RevenueSplit)
	paymentHandler := handlers.NewPaymentHandler(db, redisClient)
	reportHandler := handlers.NewReportHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db, redisClient)

	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit())

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		users := protected.Group("/users")
		users.Use(middleware.AdminOnly())
		{
			users.POST("", authHandler.CreateUser)
			users.GET("", authHandler.ListUsers)
		}

		assets := protected.Group("/assets")
		{
			assets.POST("", assetHandler.CreateAsset)
			assets.GET("", assetHandler.ListAssets)
			assets.PUT("/:id", assetHandler.UpdateAsset)
			assets.DELETE("/:id", middleware.AdminOnly(), assetHandler.DeleteAsset)
		}

		units := protected.Group("/units")
		{
			units.POST("", unitHandler.CreateUnit)
			units.GET("", unitHandler.ListUnits)
			units.PUT("/:id", unitHandler.UpdateUnit)
			units.DELETE("/:id", middleware.AdminOnly(), unitHandler.DeleteUnit)
			units.GET("/:id/contracts", unitHandler.ContractsForUnit)
		}

		tenants := protected.Group("/tenants")
		{
			tenants.POST("", tenantHandler.CreateTenant)
			tenants.GET("", tenantHandler.ListTenants)
			tenants.PUT("/:id", tenantHandler.UpdateTenant)
			tenants.DELETE("/:id", middleware.AdminOnly(), tenantHandler.DeleteTenant)
			tenants.GET("/:id/statement", reportHandler.TenantStatement)
		}

		contracts := protected.Group("/contracts")
		{
			contracts.POST("", contractHandler.CreateContract)
			contracts.GET("", contractHandler.ListContracts)
			contracts.GET("/:id", contractHandler.GetContract)
			contracts.POST("/:id/cancel", middleware.AdminOnly(), contractHandler.CancelContract)
			contracts.POST("/:id/payments/generate", contractHandler.GeneratePayments)
			contracts.GET("/:id/payments", paymentHandler.ListContractPayments)
		}

		payments := protected.Group("/payments")
		{
			payments.POST("/:id/collect", paymentHandler.CollectPayment)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("/ledger", reportHandler.FinancialLedger)
			reports.GET("/ledger/csv", reportHandler.FinancialLedgerCSV)
			reports.GET("/overdue", reportHandler.OverduePayments)
			reports.GET("/overdue/csv", reportHandler.OverduePaymentsCSV)
		}

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/stats", dashboardHandler.Stats)
			dashboard.GET("/alerts", dashboardHandler.Alerts)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	port := ":8080"
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
