package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fulfillment-service/internal/carriers"
	"fulfillment-service/internal/config"
	"fulfillment-service/internal/events"
	"fulfillment-service/internal/handlers"
	"fulfillment-service/internal/middleware"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
	"fulfillment-service/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Fulfillment Service API
// @version 1.0
// @description Order fulfillment, shipping and GST tax calculation engine

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	if err := migrateDatabase(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("Warning: Failed to parse Redis URL: %v", err)
			log.Println("Continuing without Redis caching...")
		} else {
			redisClient = redis.NewClient(opt)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Failed to connect to Redis: %v", err)
				log.Println("Continuing without Redis caching...")
				redisClient = nil
			} else {
				log.Println("✓ Connected to Redis for caching")
			}
		}
	} else {
		log.Println("REDIS_URL not configured, caching disabled")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db, redisClient)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, redisClient)
	deliveryRepo := repository.NewDeliveryRepository(db)

	// Initialize Shiprocket carrier
	carrier := carriers.NewShiprocketCarrier(carriers.CarrierConfig{
		APIKey:       cfg.Carrier.Email,
		APISecret:    cfg.Carrier.Password,
		BaseURL:      cfg.Carrier.BaseURL,
		Enabled:      cfg.Carrier.Enabled,
		IsProduction: cfg.IsProduction(),
	})

	// Initialize NATS events publisher
	var eventsPublisher *events.Publisher
	eventsPublisher, err = events.NewPublisher(logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize NATS events publisher: %v (continuing without events)", err)
		eventsPublisher = nil
	} else {
		log.Println("NATS events publisher initialized")
	}

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.IsProduction() {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("fulfillment-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("fulfillment-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("store", "fulfillment_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize services
	orderService := services.NewOrderService(orderRepo, productRepo, invoiceRepo, settingsRepo, eventsPublisher, logger)
	deliveryService := services.NewDeliveryService(deliveryRepo, orderRepo, settingsRepo, carrier, eventsPublisher, logger)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	shipmentHandler := handlers.NewShipmentHandler(deliveryService)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)

	// Setup router
	router := setupRouter(cfg, orderHandler, shipmentHandler, settingsHandler, metrics)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down Fulfillment Service...")

		if eventsPublisher != nil {
			eventsPublisher.Close()
			log.Println("✓ Events publisher closed")
		}

		if tracerProvider != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer provider: %v", err)
			} else {
				log.Println("✓ Tracer provider shut down")
			}
		}

		log.Println("Fulfillment service stopped")
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting Fulfillment Service on %s", cfg.GetServerAddress())
	if err := router.Run(cfg.GetServerAddress()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDatabase initializes the database connection
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// migrateDatabase runs database migrations
func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.StoreSettings{},
		&models.WeightRateRule{},
		&models.VolumeRateRule{},
		&models.Order{},
		&models.OrderItem{},
		&models.ShippingDetails{},
		&models.OrderPayment{},
		&models.Invoice{},
		&models.Delivery{},
		&models.DeliveryCheckpoint{},
	)
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(cfg *config.Config, orderHandler *handlers.OrderHandler, shipmentHandler *handlers.ShipmentHandler, settingsHandler *handlers.SettingsHandler, metrics *gosharedmw.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gosharedmw.SecurityHeaders())
	router.Use(gosharedmw.RateLimit())
	router.Use(middleware.SetupCORS())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("fulfillment-service"))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.HealthResponse{
			Status:  "ok",
			Service: "fulfillment-service",
			Version: "1.0.0",
		})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gosharedmw.Handler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		// Storefront checkout - guests allowed, customer email taken
		// from the JWT when present
		checkout := api.Group("/checkout")
		checkout.Use(middleware.OptionalCustomerAuth())
		{
			checkout.POST("/orders", orderHandler.CreateOrder)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/number/:orderNumber", orderHandler.GetOrderByNumber)
			orders.GET("/:id/invoice", orderHandler.GetInvoice)
			orders.GET("/:id/delivery", shipmentHandler.GetDelivery)
		}

		admin := api.Group("/admin")
		{
			adminOrders := admin.Group("/orders")
			{
				adminOrders.GET("/:id/rates", shipmentHandler.QuoteRates)
				adminOrders.POST("/:id/ship", shipmentHandler.Ship)
				adminOrders.POST("/:id/pickup", shipmentHandler.SchedulePickup)
				adminOrders.GET("/:id/track", shipmentHandler.RefreshTracking)
				adminOrders.POST("/:id/cancel", orderHandler.CancelOrder)
				adminOrders.POST("/:id/cancel-shipment", shipmentHandler.CancelShipment)
				adminOrders.PATCH("/:id/payment-status", orderHandler.UpdatePaymentStatus)
			}

			admin.PUT("/deliveries/:id", shipmentHandler.UpdateDelivery)
			admin.GET("/settings", settingsHandler.GetSettings)
			admin.PUT("/settings", settingsHandler.UpdateSettings)
		}
	}

	return router
}
