package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/esaldgut/booking-payments/api"
	"github.com/esaldgut/booking-payments/cache"
	"github.com/esaldgut/booking-payments/config"
	"github.com/esaldgut/booking-payments/db"
	"github.com/esaldgut/booking-payments/middleware"
	"github.com/esaldgut/booking-payments/services"
	"github.com/esaldgut/booking-payments/stores"
	"github.com/esaldgut/booking-payments/utils"
	"github.com/gorilla/mux"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func main() {
	fmt.Printf("%s%sBooking Payments — payment webhook & installment settlement%s\n\n", colorCyan, colorBold, colorReset)

	printStep("1/7", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Configuration loaded")
	if cfg.Gateway.WebhookSecret == "" {
		printWarning("PAYMENT_WEBHOOK_SECRET is not set; the webhook endpoint will reject all deliveries")
	}

	printStep("2/7", "Connecting to database...")
	database, err := db.Connect(db.Config{
		DSN:             cfg.GetDatabaseURL(),
		ReplicaDSNs:     cfg.Database.ReplicaDSNs,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.MaxLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		printError(fmt.Sprintf("Failed to connect to database: %v", err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(database); err != nil {
		printError(fmt.Sprintf("Failed to run migrations: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))

	printStep("3/7", "Connecting to Redis...")
	var redisCache *cache.RedisCache
	if cfg.Redis.Host != "" {
		redisCache, err = cache.CreateRedisCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			printWarning(fmt.Sprintf("Failed to connect to Redis: %v (continuing without redelivery markers)", err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			printSuccess(fmt.Sprintf("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port))
		}
	} else {
		printWarning("Redis not configured (continuing without redelivery markers)")
	}

	printStep("4/7", "Initializing stores...")
	reservationStore := stores.CreateReservationStore(database)
	installmentStore := stores.CreateInstallmentStore(database)
	deliveryStore := stores.CreateWebhookDeliveryStore(database)
	gateway := stores.CreateSettlementGateway(reservationStore, installmentStore)
	printSuccess("Stores initialized")

	printStep("5/7", "Initializing services...")
	verifier := services.NewSignatureVerifier(cfg.Gateway.WebhookSecret)
	settlementService := services.NewSettlementService(installmentStore, gateway, cfg.Gateway.CallTimeout)
	metrics := utils.CreateMetricsCollector()
	printSuccess("Services initialized")

	printStep("6/7", "Setting up HTTP server...")
	var marker api.RedeliveryMarker
	if redisCache != nil {
		marker = redisCache
	}
	webhookHandler := api.CreateWebhookHandler(verifier, settlementService, deliveryStore, marker, metrics)
	deliveryHandler := api.CreateDeliveryHandler(deliveryStore, redisCache)

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RecoveryMiddleware)

	webhookHandler.RegisterRoutes(router)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	apiRouter.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	apiRouter.HandleFunc("/metrics", api.CreateMetricsHandler(metrics)).Methods("GET")
	deliveryHandler.RegisterRoutes(apiRouter)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	printSuccess("HTTP server configured")

	printStep("7/7", "Starting background janitor...")
	janitorStop := make(chan struct{})
	go runDeliveryJanitor(deliveryStore, cfg.Gateway.DeliveryRetention, janitorStop)
	printSuccess("Janitor started")

	fmt.Println()
	printSuccess(fmt.Sprintf("Listening on :%s (environment: %s)", cfg.Server.Port, cfg.Environment))
	fmt.Printf("  %s•%s Webhook:    POST http://localhost:%s/webhooks/payment\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Health:     GET  http://localhost:%s/api/v1/health\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Metrics:    GET  http://localhost:%s/api/v1/metrics\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Deliveries: GET  http://localhost:%s/api/v1/webhook-deliveries\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Println()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server failed to start: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	printWarning("Shutting down...")
	close(janitorStop)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Server forced to shutdown: %v", err))
		os.Exit(1)
	}

	printSuccess("Server stopped gracefully")
}

// runDeliveryJanitor trims old audit records once a day until stop closes.
func runDeliveryJanitor(store *stores.WebhookDeliveryStore, retention time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			removed, err := store.CleanupOld(ctx, retention)
			cancel()
			if err != nil {
				utils.Warn(context.Background(), "delivery cleanup failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if removed > 0 {
				utils.Info(context.Background(), "delivery cleanup completed", map[string]interface{}{"removed": removed})
			}
		case <-stop:
			return
		}
	}
}
