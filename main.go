package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"trip-haven-backend/internal/config"
	"trip-haven-backend/internal/handlers"
	"trip-haven-backend/internal/kafka"
	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/mailer"
	"trip-haven-backend/internal/middleware"
	"trip-haven-backend/internal/models"
	rediswrap "trip-haven-backend/internal/redis"
	"trip-haven-backend/internal/services"
	"trip-haven-backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Trip Haven backend starting up...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer store.Close()
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer kafkaProducer.Close()
	log.LogKafka("INIT", "producer", "Kafka producer initialized successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	submitLock := rediswrap.NewRedis(redisClient)
	log.LogProcess("SERVICE", "Redis submission guard initialized")

	bookingMailer := mailer.NewMailer(cfg.SMTP, log)

	gatewayService := services.NewGatewayService(store, log)
	bookingService := services.NewBookingService(store, kafkaProducer, submitLock, bookingMailer, cfg.Payment, log)
	catalogService := services.NewCatalogService(store, log)

	paymentService := services.NewPaymentService(store, gatewayService, kafkaProducer, cfg.Payment, log)
	paymentService.RegisterProvider(models.ProtocolHostedScript, services.NewStripeProvider(log))
	paymentService.RegisterProvider(models.ProtocolRedirect, services.NewRedirectProvider(cfg.Payment.ProviderTimeout, log))
	log.LogProcess("SERVICE", "All services initialized")

	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, gatewayService)
	gatewayHandler := handlers.NewGatewayHandler(gatewayService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	log.LogProcess("HANDLER", "All handlers initialized")

	// The mailer consumes booking events off Kafka so email sending never
	// blocks a request. In mock mode the producer logs instead, so the
	// consumer is only started against real brokers.
	if !cfg.Kafka.MockMode {
		bookingConsumer, err := kafka.NewBookingConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			log.Fatal("KAFKA", "Failed to create Kafka consumer: "+err.Error())
		}
		defer bookingConsumer.Close()

		go func() {
			log.LogKafka("START", "consumer", "Starting booking event consumer")
			if err := bookingConsumer.ConsumeBookingEvents(context.Background(), bookingMailer.HandleBookingEvent); err != nil {
				log.Error("KAFKA", "Consumer error: "+err.Error())
			}
		}()
	}

	router := setupRouter(cfg, bookingHandler, paymentHandler, gatewayHandler, catalogHandler)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "🚀 Trip Haven backend is ready to accept requests!")
		log.Info("STARTUP", "📊 Health check available at: http://localhost"+cfg.Server.Port+"/health")
		log.Info("STARTUP", "🧳 Booking API available at: http://localhost"+cfg.Server.Port+"/api/v1/bookings")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "✅ Trip Haven backend shutdown completed successfully")
}

func setupRouter(cfg *config.Config, bookingHandler *handlers.BookingHandler, paymentHandler *handlers.PaymentHandler,
	gatewayHandler *handlers.GatewayHandler, catalogHandler *handlers.CatalogHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders(log))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"service":   "trip-haven-backend",
			"version":   "1.0.0",
		})
	})

	v1 := router.Group("/api/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", catalogHandler.ListItems)
			catalog.GET("/:id", catalogHandler.GetItem)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:reference", bookingHandler.GetBooking)
			bookings.GET("/:reference/travelers/scaffold", bookingHandler.GetTravelerScaffold)
			bookings.POST("/:reference/travelers", bookingHandler.AttachTravelers)
			bookings.GET("/:reference/travelers", bookingHandler.GetTravelers)
		}

		payments := v1.Group("/payments")
		{
			payments.GET("/gateways", paymentHandler.ListGatewayOptions)
			payments.POST("/initiate", paymentHandler.InitiatePayment)
			payments.GET("/sessions/:session_id", paymentHandler.GetSession)
			payments.POST("/sessions/:session_id/complete", paymentHandler.CompletePayment)
			payments.POST("/sessions/:session_id/cancel", paymentHandler.CancelPayment)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/bookings", bookingHandler.ListBookings)
			admin.GET("/bookings/export", bookingHandler.ExportBookings)
			admin.PUT("/bookings/:reference/status", bookingHandler.UpdateStatus)
			admin.POST("/bookings/:reference/notify", bookingHandler.Notify)

			admin.POST("/payments/refund", paymentHandler.RefundPayment)

			admin.POST("/gateways", gatewayHandler.CreateGateway)
			admin.PUT("/gateways/:id", gatewayHandler.UpdateGateway)
			admin.DELETE("/gateways/:id", gatewayHandler.DeleteGateway)

			admin.POST("/catalog", catalogHandler.CreateItem)
			admin.PUT("/catalog/:id", catalogHandler.UpdateItem)
			admin.DELETE("/catalog/:id", catalogHandler.DeleteItem)
			admin.POST("/catalog/import", catalogHandler.ImportItems)
		}
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
