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

	"github.com/opencallout/callout-services-backend/internal/config"
	"github.com/opencallout/callout-services-backend/internal/database"
	"github.com/opencallout/callout-services-backend/internal/router"
	"github.com/opencallout/callout-services-backend/internal/services"
	"github.com/opencallout/callout-services-backend/internal/services/provider"
	"github.com/opencallout/callout-services-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	// Import Swagger docs
	_ "github.com/opencallout/callout-services-backend/docs"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize the voice provider client and call dispatcher
	providerConfig := config.GetProviderConfig()
	providerClient := provider.NewTwilioClient(providerConfig)
	dispatcher := services.NewDispatcherService(db, providerClient, providerConfig.EnqueueTimeout)

	// Initialize RabbitMQ service. The API degrades gracefully without it:
	// population transitions still commit, only worker notifications stop.
	var notifier services.PopulationNotifier
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()
		notifier = rabbitMQService
	}

	// Initialize population service and start the queue worker
	populationService := services.NewPopulationService(db, notifier)
	if rabbitMQService != nil {
		if err := populationService.StartQueueConsumer(rabbitMQService); err != nil {
			logrus.Warnf("Failed to start population queue consumer: %v", err)
		} else {
			defer populationService.StopQueueConsumer()
		}
	}

	// Initialize retry sweep service
	retryService := services.NewRetryService(db, populationService, dispatcher)
	retryService.SetIntervals(
		time.Duration(getEnvAsInt("RETRY_INTERVAL_SECONDS", 0))*time.Second,
		time.Duration(getEnvAsInt("POPULATION_STABLE_WINDOW_SECONDS", 0))*time.Second,
		time.Duration(getEnvAsInt("CALL_RETRY_WINDOW_SECONDS", 0))*time.Second,
	)
	retryService.Start()
	defer retryService.Stop()

	// Initialize router
	r := router.SetupRouter(db, dispatcher, notifier)

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}
