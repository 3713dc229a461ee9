package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/handlers"
	"spendwise/internal/logger"
	"spendwise/internal/middleware"
	"spendwise/internal/notify"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// @title           Spendwise API
// @version         1.0
// @description     Spendwise is a personal expense tracker: record expenses, search and filter them, review spending summaries, and get alerts when budgets are exceeded.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Budget alerts go through the broker when one is configured and fall
	// back to the log otherwise.
	var sink notify.Sink
	if appConfig.AMQPURL != "" {
		sink, err = notify.NewAMQPSink(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		log.Infof("Budget alerts publishing to exchange %s", appConfig.AMQPExchange)
	} else {
		sink = notify.LogSink{}
		log.Info("AMQP_URL not set, budget alerts will be logged")
	}
	dispatcher := notify.NewDispatcher(sink, 64)

	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	budgetService := services.NewBudgetService(db, dispatcher)
	expenseService := services.NewExpenseService(db, budgetService)
	analyticsService := services.NewAnalyticsService(db)

	authHandler := handlers.NewAuthHandler(userService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, analyticsService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Profile
	users := protected.Group("/users")
	users.GET("/me", authHandler.GetProfile)
	users.PUT("/me", authHandler.UpdateProfile)
	users.PUT("/me/password", authHandler.ChangePassword)

	// Expense routes. Fixed paths register before the :id wildcard.
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/summary", expenseHandler.GetSummary)
	expenses.GET("/analytics", expenseHandler.GetAnalytics)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	server := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting Spendwise server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Warnf("server shutdown error: %v", err)
		}
		// Drain pending alerts before exit.
		return dispatcher.Close()
	})

	return g.Wait()
}
