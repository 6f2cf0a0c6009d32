package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	invoicingapp "github.com/invoicehub/backend/internal/application/invoicing"
	partnerapp "github.com/invoicehub/backend/internal/application/partner"
	"github.com/invoicehub/backend/internal/infrastructure/config"
	"github.com/invoicehub/backend/internal/infrastructure/event"
	"github.com/invoicehub/backend/internal/infrastructure/logger"
	"github.com/invoicehub/backend/internal/infrastructure/persistence"
	"github.com/invoicehub/backend/internal/interfaces/http/handler"
	"github.com/invoicehub/backend/internal/interfaces/http/middleware"
	"github.com/invoicehub/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting InvoiceHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus with an audit handler that logs every
	// invoice, payment and batch event
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	supplierService := partnerapp.NewSupplierService(supplierRepo,
		partnerapp.WithSupplierEventPublisher(eventBus))
	customerService := partnerapp.NewCustomerService(customerRepo,
		partnerapp.WithCustomerEventPublisher(eventBus))
	ledgerService := invoicingapp.NewLedgerService(txScope, supplierRepo, customerRepo,
		invoicingapp.WithLedgerEventPublisher(eventBus))
	paymentService := invoicingapp.NewPaymentService(txScope,
		invoicingapp.WithPaymentEventPublisher(eventBus))
	batchService := invoicingapp.NewBatchPaymentService(txScope,
		invoicingapp.WithBatchEventPublisher(eventBus),
		invoicingapp.WithBatchLogger(log))

	// Initialize HTTP handlers
	supplierHandler := handler.NewSupplierHandler(supplierService)
	customerHandler := handler.NewCustomerHandler(customerService)
	invoiceHandler := handler.NewInvoiceHandler(ledgerService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	batchHandler := handler.NewBatchPaymentHandler(batchService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Authorization oracle; permission checks are delegated to an
	// external service in real deployments
	engine.Use(middleware.Authorize(middleware.AllowAllChecker{}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Partner domain (suppliers, customers)
	partnerRoutes := router.NewDomainGroup("partner", "/partner")

	// Supplier routes
	partnerRoutes.POST("/suppliers", supplierHandler.Create)
	partnerRoutes.GET("/suppliers", supplierHandler.List)
	partnerRoutes.GET("/suppliers/active", supplierHandler.ListActive)
	partnerRoutes.GET("/suppliers/code/:code", supplierHandler.GetByCode)
	partnerRoutes.GET("/suppliers/:id", supplierHandler.GetByID)
	partnerRoutes.PUT("/suppliers/:id", supplierHandler.Update)
	partnerRoutes.DELETE("/suppliers/:id", supplierHandler.Delete)
	partnerRoutes.POST("/suppliers/:id/activate", supplierHandler.Activate)
	partnerRoutes.POST("/suppliers/:id/deactivate", supplierHandler.Deactivate)

	// Customer routes
	partnerRoutes.POST("/customers", customerHandler.Create)
	partnerRoutes.GET("/customers", customerHandler.List)
	partnerRoutes.GET("/customers/active", customerHandler.ListActive)
	partnerRoutes.GET("/customers/:id", customerHandler.GetByID)
	partnerRoutes.PUT("/customers/:id", customerHandler.Update)
	partnerRoutes.DELETE("/customers/:id", customerHandler.Delete)
	partnerRoutes.POST("/customers/:id/activate", customerHandler.Activate)
	partnerRoutes.POST("/customers/:id/deactivate", customerHandler.Deactivate)

	// Invoicing domain (invoices, payments, allocations, batch runs)
	invoicingRoutes := router.NewDomainGroup("invoicing", "/invoicing")

	// Invoice routes
	invoicingRoutes.POST("/invoices", invoiceHandler.Create)
	invoicingRoutes.GET("/invoices", invoiceHandler.List)
	invoicingRoutes.GET("/invoices/overdue", invoiceHandler.GetOverdue)
	invoicingRoutes.GET("/invoices/over-allocated", invoiceHandler.GetOverAllocated)
	invoicingRoutes.GET("/invoices/outstanding-by-supplier", invoiceHandler.SupplierOutstanding)
	invoicingRoutes.POST("/invoices/recalculate", invoiceHandler.RecalculateAll)
	invoicingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	invoicingRoutes.PUT("/invoices/:id", invoiceHandler.Update)
	invoicingRoutes.DELETE("/invoices/:id", invoiceHandler.Delete)
	invoicingRoutes.POST("/invoices/:id/recalculate", invoiceHandler.Recalculate)

	// Payment routes
	invoicingRoutes.POST("/payments", paymentHandler.Create)
	invoicingRoutes.GET("/payments", paymentHandler.List)
	invoicingRoutes.GET("/payments/unallocated", paymentHandler.ListUnallocated)
	invoicingRoutes.GET("/payments/partially-allocated", paymentHandler.ListPartiallyAllocated)
	invoicingRoutes.GET("/payments/:id", paymentHandler.GetByID)
	invoicingRoutes.PUT("/payments/:id", paymentHandler.Update)
	invoicingRoutes.DELETE("/payments/:id", paymentHandler.Delete)
	invoicingRoutes.POST("/payments/:id/allocations", paymentHandler.Allocate)
	invoicingRoutes.GET("/payments/:id/allocations", paymentHandler.GetAllocations)
	invoicingRoutes.GET("/payments/:id/unallocated", paymentHandler.GetUnallocatedAmount)

	// Allocation routes (addressed by allocation ID)
	invoicingRoutes.PUT("/allocations/:id", paymentHandler.UpdateAllocation)
	invoicingRoutes.DELETE("/allocations/:id", paymentHandler.DeleteAllocation)

	// Batch payment run routes
	invoicingRoutes.POST("/batch-payments", batchHandler.Create)
	invoicingRoutes.GET("/batch-payments", batchHandler.List)
	invoicingRoutes.GET("/batch-payments/unpaid-invoices", batchHandler.GetUnpaidInvoices)
	invoicingRoutes.GET("/batch-payments/:id", batchHandler.GetByID)
	invoicingRoutes.DELETE("/batch-payments/:id", batchHandler.Delete)
	invoicingRoutes.POST("/batch-payments/:id/items", batchHandler.AddItem)
	invoicingRoutes.PUT("/batch-payments/:id/items/:item_id", batchHandler.UpdateItem)
	invoicingRoutes.DELETE("/batch-payments/:id/items/:item_id", batchHandler.RemoveItem)
	invoicingRoutes.POST("/batch-payments/:id/ready", batchHandler.MarkReady)
	invoicingRoutes.POST("/batch-payments/:id/process", batchHandler.Process)
	invoicingRoutes.POST("/batch-payments/:id/cancel", batchHandler.Cancel)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(partnerRoutes).
		Register(invoicingRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
