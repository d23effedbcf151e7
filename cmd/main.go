package main

import (
	"strconv"
	"time"

	"github.com/StackTheCode/invoice-shield/internal/fraud"
	"github.com/StackTheCode/invoice-shield/internal/handler"
	"github.com/StackTheCode/invoice-shield/internal/middleware"
	"github.com/StackTheCode/invoice-shield/internal/ocr"
	"github.com/StackTheCode/invoice-shield/internal/store"
	"github.com/StackTheCode/invoice-shield/internal/verification"
	"github.com/StackTheCode/invoice-shield/pkg/config"
	"github.com/StackTheCode/invoice-shield/pkg/database"
	"github.com/StackTheCode/invoice-shield/pkg/jwtutil"
	"github.com/StackTheCode/invoice-shield/pkg/logger"
	"github.com/StackTheCode/invoice-shield/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting invoice-shield service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg, log); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.Name))

	db := database.GetDB()

	// Fraud engine collaborators
	extractor := ocr.NewExtractor(cfg.OCR, log)
	viesClient := verification.NewVIESClient(cfg.Verification.VIESBaseURL, cfg.Verification.Timeout, log)
	directory := verification.NewCompanyDirectory()
	engine := fraud.NewEngine(
		store.NewVendorStore(db),
		store.NewInvoiceStore(db),
		viesClient,
		directory,
		fraud.DefaultPolicy(),
		cfg.Fraud.CheckTimeout,
		log,
	)
	invoiceHandler := handler.NewInvoiceHandler(extractor, engine, cfg.Upload)
	log.Info("Fraud engine initialized", zap.Duration("check_timeout", cfg.Fraud.CheckTimeout))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate duration
			duration := time.Since(start).Seconds()
			status := c.Response().Status

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Request().URL.Path,
				strconv.Itoa(status),
			).Inc()

			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Request().URL.Path,
				strconv.Itoa(status),
			).Observe(duration)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/health", handler.Health)
	e.POST("/api/auth/register", handler.Register)
	e.POST("/api/auth/login", handler.Login)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.Handler()))

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Vendor endpoints with company context requirement
	vendors := api.Group("/vendors")
	vendors.Use(middleware.RequireCompanyContext)
	vendors.POST("", handler.CreateVendor)
	vendors.POST("/import", handler.ImportVendors)
	vendors.GET("", handler.ListVendors)
	vendors.GET("/:id", handler.GetVendor)
	vendors.PUT("/:id", handler.UpdateVendor)
	vendors.DELETE("/:id", handler.DeleteVendor)

	// Invoice endpoints with company context requirement
	invoices := api.Group("/invoices")
	invoices.Use(middleware.RequireCompanyContext)
	invoices.POST("/upload", invoiceHandler.Upload)
	invoices.POST("/:id/analyze", invoiceHandler.Analyze)
	invoices.GET("", invoiceHandler.List)
	invoices.GET("/:id", invoiceHandler.Get)
	invoices.DELETE("/:id", invoiceHandler.Delete)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
