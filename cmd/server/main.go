package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/handlers"
	"github.com/elitetransport/booking-backend/internal/middleware"
	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/elitetransport/booking-backend/pkg/sms"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Elite Transport Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Schema bootstrap: one-shot latch, retried by the next request on
	// failure through the ensureSchema middleware below
	schema := database.NewSchemaManager(db, logger)
	if err := schema.Ensure(); err != nil {
		logger.Warnf("Schema bootstrap failed, will retry on first request: %v", err)
	}

	// Initialize repositories
	routeRepository := database.NewRouteRepository(db)
	busRepository := database.NewBusRepository(db)
	tripRepository := database.NewTripRepository(db)
	passengerRepository := database.NewPassengerRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	seatLockRepository := database.NewSeatLockRepository(db)
	userRepository := database.NewUserRepository(db)
	sessionRepository := database.NewSessionRepository(db)
	receiptRepository := database.NewReceiptRepository(db)

	// Initialize SMS gateway
	smsGateway := sms.NewArkeselGateway(sms.ArkeselConfig{
		APIURL:   cfg.SMS.APIURL,
		APIKey:   cfg.SMS.APIKey,
		SenderID: cfg.SMS.SenderID,
	})
	logger.Infof("SMS gateway initialized: %s", smsGateway.GetName())

	// Initialize services
	logger.Info("Initializing services...")
	paystackService := services.NewPaystackService(&cfg.Paystack, logger)
	notifyService := services.NewNotifyService(&cfg.Receipt, receiptRepository, smsGateway, logger)
	tripService := services.NewTripService(tripRepository, routeRepository, busRepository, bookingRepository, seatLockRepository, logger)
	seatService := services.NewSeatService(busRepository, bookingRepository, seatLockRepository, tripService, logger)
	bookingService := services.NewBookingService(
		busRepository,
		routeRepository,
		passengerRepository,
		bookingRepository,
		seatLockRepository,
		tripService,
		paystackService,
		notifyService,
		logger,
	)
	authService := services.NewAuthService(userRepository, sessionRepository, passengerRepository, &cfg.Admin, logger)
	catalogService := services.NewCatalogService(routeRepository, busRepository, tripRepository, bookingRepository, logger)
	adminService := services.NewAdminService(routeRepository, busRepository, tripRepository, bookingRepository, userRepository, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	routeHandler := handlers.NewRouteHandler(catalogService, passengerRepository, logger)
	seatHandler := handlers.NewSeatHandler(seatService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	webhookHandler := handlers.NewWebhookHandler(paystackService, bookingService, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(bookingRepository, logger)
	adminHandler := handlers.NewAdminHandler(adminService, tripService, bookingService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(ensureSchema(schema, logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  cfg.CORS.AllowedMethods,
		AllowHeaders:  cfg.CORS.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Some processor configurations deliver webhooks to the bare root
	router.POST("/", webhookHandler.ReceiveFallback)

	// API routes
	api := router.Group("/api")
	{
		// Public catalog and seat endpoints
		api.GET("/routes", routeHandler.GetRoutes)
		api.GET("/passengers", routeHandler.GetPassengers)

		bus := api.Group("/bus/:busId")
		{
			bus.GET("/seats", seatHandler.GetSeats)
			bus.POST("/lock-seat", seatHandler.LockSeat)
			bus.POST("/unlock-seat", seatHandler.UnlockSeat)
		}

		api.POST("/booking/confirm", bookingHandler.Confirm)
		api.POST("/paystack/webhook", webhookHandler.Receive)

		// Auth endpoints
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/google", authHandler.Google)
			auth.POST("/verify", authHandler.Verify)
			auth.POST("/signout", authHandler.SignOut)
		}

		// User endpoints (bearer token required)
		user := api.Group("/user")
		user.Use(middleware.RequireAuth(authService))
		{
			user.GET("/bookings", userHandler.GetBookings)
			user.GET("/profile", userHandler.GetProfile)
		}

		// Admin endpoints (bearer token + allow-list required)
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(authService))
		admin.Use(middleware.RequireAdmin(authService))
		{
			admin.GET("/fleet", adminHandler.GetFleet)
			admin.POST("/buses", adminHandler.CreateBus)
			admin.POST("/trips", adminHandler.CreateTrip)
			admin.POST("/trips/:tripId/end", adminHandler.EndTrip)
			admin.POST("/bookings/manual", adminHandler.ManualBooking)
			admin.GET("/bookings/upcoming", adminHandler.GetUpcomingBookings)
			admin.GET("/dashboard", adminHandler.GetDashboard)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Reap expired auth sessions in the background
	sweeperDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if reaped, err := sessionRepository.DeleteExpired(time.Now()); err != nil {
					logger.WithError(err).Warn("Session sweep failed")
				} else if reaped > 0 {
					logger.WithField("sessions", reaped).Info("Swept expired sessions")
				}
			case <-sweeperDone:
				return
			}
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	close(sweeperDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request completed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// ensureSchema retries the one-shot schema bootstrap until it succeeds.
// Once Ensure has completed, this is a cheap flag check.
func ensureSchema(schema *database.SchemaManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := schema.Ensure(); err != nil {
			logger.WithError(err).Error("Schema bootstrap failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Service unavailable"})
			return
		}
		c.Next()
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		dbStatus := "connected"
		code := http.StatusOK

		if err := db.Ping(); err != nil {
			status = "unhealthy"
			dbStatus = "disconnected"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbStatus,
			"version":  version,
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
