package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggofiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	"github.com/openbasket/allocator/config"
	"github.com/openbasket/allocator/internal/cache"
	"github.com/openbasket/allocator/internal/database"
	"github.com/openbasket/allocator/internal/exchange"
	"github.com/openbasket/allocator/internal/handlers"
	"github.com/openbasket/allocator/internal/middleware"
	"github.com/openbasket/allocator/internal/repository"
	"github.com/openbasket/allocator/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.SlippageBps < 0 || cfg.SlippageBps > services.MaxSlippageBps {
		log.Fatalf("SLIPPAGE_BPS must be between 0 and %d, got %d", services.MaxSlippageBps, cfg.SlippageBps)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize stores: Postgres when configured, in-memory otherwise
	var (
		planStore       repository.PlanStore
		ledgerStore     repository.LedgerStore
		investmentStore repository.InvestmentStore
		holdingStore    repository.HoldingStore
	)
	if cfg.PGURL != "" {
		db, err := database.New(ctx, cfg.PGURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		planStore = repository.NewPlanRepository(db.Pool)
		ledgerStore = repository.NewLedgerRepository(db.Pool)
		investmentStore = repository.NewInvestmentRepository(db.Pool)
		holdingStore = repository.NewHoldingRepository(db.Pool)
	} else {
		log.Println("PG_URL not set, using in-memory store")
		mem := repository.NewMemoryStore()
		planStore = mem
		ledgerStore = mem
		investmentStore = mem
		holdingStore = mem
	}

	// Initialize the swap venue: HTTP client when configured, stub otherwise
	var venue exchange.Venue
	if cfg.VenueURL != "" {
		venue = exchange.NewClient(cfg.VenueKey, cfg.VenueURL)
	} else {
		log.Println("VENUE_URL not set, using stub venue")
		venue = exchange.NewStubVenue()
	}

	// Initialize caches
	planCache := cache.NewPlanCache(5 * time.Minute)

	// Initialize services
	planSvc := services.NewPlanService(planStore, planCache)
	ledgerSvc := services.NewLedgerService(ledgerStore, cfg.MinDeposit)
	investmentSvc := services.NewInvestmentService(planSvc, ledgerSvc, investmentStore, holdingStore, venue, cfg.BaseToken, cfg.SlippageBps)

	// Initialize handlers
	planHandler := handlers.NewPlanHandler(planSvc)
	ledgerHandler := handlers.NewLedgerHandler(ledgerSvc, investmentSvc)
	investmentHandler := handlers.NewInvestmentHandler(investmentSvc)

	// Setup Gin router
	router := gin.Default()

	// Apply global middleware
	router.Use(middleware.ValidateUser())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggofiles.Handler))

	// Plan routes
	router.POST("/plans", planHandler.Create)
	router.GET("/plans", planHandler.List)
	router.GET("/plans/:id", planHandler.Get)
	router.PUT("/plans/:id", planHandler.Update)
	router.DELETE("/plans/:id", planHandler.Deactivate)

	// Ledger routes
	router.POST("/deposits", ledgerHandler.Deposit)
	router.POST("/deposits/batch", ledgerHandler.BatchDeposit)
	router.POST("/deposits/import", ledgerHandler.ImportDeposits)

	// Investment routes
	router.POST("/investments", investmentHandler.Invest)
	router.POST("/investments/:id/execute", investmentHandler.Execute)
	router.POST("/investments/:id/fail", investmentHandler.Fail)
	router.POST("/investments/execute-batch", investmentHandler.BatchExecute)
	router.POST("/invest-now", investmentHandler.DepositAndInvest)

	// User routes
	router.GET("/users/:user_id/ledger", ledgerHandler.GetLedger)
	router.GET("/users/:user_id/deposits", ledgerHandler.ListDeposits)
	router.GET("/users/:user_id/portfolio-value", ledgerHandler.PortfolioValue)
	router.GET("/users/:user_id/summary", ledgerHandler.Summary)
	router.GET("/users/:user_id/investments", investmentHandler.List)
	router.GET("/users/:user_id/holdings", investmentHandler.ListHoldings)

	// Admin routes
	router.PUT("/admin/slippage", investmentHandler.SetSlippage)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	fmt.Println("Server exited")
}
