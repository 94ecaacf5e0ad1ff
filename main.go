package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-svc/cache"
	"booking-svc/config"
	"booking-svc/database"
	"booking-svc/gateway"
	"booking-svc/handlers"
	"booking-svc/invoice"
	"booking-svc/kafka"
	"booking-svc/middleware"
	"booking-svc/wablast"

	"github.com/IBM/sarama"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg.DB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.SeedRooms(db, logger); err != nil {
		logger.Warn("Failed to seed rooms", zap.Error(err))
	}

	// Initialize Redis (optional room cache)
	redisClient, err := cache.InitRedis(cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, room cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize Kafka producer (optional event stream)
	var producer sarama.SyncProducer
	if cfg.Kafka.Broker != "" {
		producer, err = kafka.InitProducer(cfg.Kafka.Broker, logger)
		if err != nil {
			logger.Warn("Kafka unavailable, booking events disabled", zap.Error(err))
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("booking-service")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	// Domain clients
	gw := gateway.NewMidtransClient(cfg.Midtrans, cfg.FrontendURL, logger)
	invoices := invoice.NewGenerator(cfg.InvoiceDir, cfg.Hotel, logger)
	notifier := wablast.NewClient(cfg.WABlast, logger)

	authHandler := handlers.NewAuthHandler(cfg.Auth, logger)
	roomHandler := handlers.NewRoomHandler(db, redisClient, logger)
	bookingHandler := handlers.NewBookingHandler(db, gw, producer, cfg, logger)
	paymentHandler := handlers.NewPaymentHandler(db, gw, invoices, notifier, producer, cfg, logger)
	waHandler := handlers.NewWABlastHandler(notifier, logger)

	// Setup REST API with Gin
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(otelgin.Middleware("booking-service"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	// Generated invoices, served for WhatsApp document links
	router.Static("/invoices", cfg.InvoiceDir)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", authHandler.Me)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomHandler.GetRooms)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.POST("", roomHandler.CreateRoom)
			rooms.PUT("/:id", roomHandler.UpdateRoom)
			rooms.DELETE("/:id", roomHandler.DeleteRoom)
		}

		bookings := api.Group("/bookings")
		{
			bookings.GET("", bookingHandler.ListBookings)
			bookings.GET("/stats", bookingHandler.GetBookingStats)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.PATCH("/:id/status", bookingHandler.UpdateBookingStatus)
		}

		payments := api.Group("/payments")
		{
			payments.GET("/client-key", paymentHandler.GetClientKey)
			payments.POST("/notification", paymentHandler.HandleNotification)
			payments.POST("/:bookingId/confirm", paymentHandler.ConfirmPayment)
			payments.GET("/:bookingId/status", paymentHandler.GetPaymentStatus)
		}

		wa := api.Group("/wa-blast")
		{
			wa.GET("/status", waHandler.GetStatus)
			wa.POST("/send", waHandler.SendTest)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start REST server", zap.Error(err))
		}
	}()

	logger.Info("Booking Service started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
