package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"export-service/internal/config"
	"export-service/internal/core/ports"
	"export-service/internal/core/usecases"
	"export-service/internal/identity"
	"export-service/internal/providers"
	"export-service/internal/shell/datasource"
	"export-service/internal/shell/executor"
	httpShell "export-service/internal/shell/http"
	"export-service/internal/shell/messaging"
	"export-service/internal/shell/notification"
	"export-service/internal/shell/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	hostname, _ := os.Hostname()
	log.Printf("Starting Export Service")
	log.Printf("  Instance: %s-%d", hostname, os.Getpid())
	log.Printf("  Server: %s:%d (private: %d)", cfg.Server.Host, cfg.Server.Port, cfg.Server.PrivatePort)
	log.Printf("  Storage Root: %s (retention: %t, max age: %s)", cfg.Storage.Root, cfg.Storage.RetentionEnabled, cfg.Storage.RetentionMaxAge)
	log.Printf("  Database Type: %s", cfg.Database.Type)
	log.Printf("  Notification Channel: %s", cfg.NotificationChannelImpl)
	log.Printf("  Kafka: enabled=%t, brokers=%v", cfg.Kafka.Enabled, cfg.Kafka.Brokers)
	log.Printf("  Metrics: enabled=%t, port=%d", cfg.Metrics.Enabled, cfg.Metrics.Port)

	// Notification repository
	var repository ports.NotificationRepository
	switch cfg.Database.Type {
	case "memory":
		repository = storage.NewMemoryNotificationRepository()
		log.Printf("In-memory notification repository initialized")
	case "sqlite":
		sqliteRepo, err := storage.NewSQLiteNotificationRepository(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite notification repository: %v", err)
		}
		defer func() {
			if closeErr := sqliteRepo.Close(); closeErr != nil {
				log.Printf("Error closing notification repository: %v", closeErr)
			}
		}()
		repository = sqliteRepo
	case "postgres":
		postgresRepo, err := storage.NewPostgresNotificationRepository(cfg.Database.ConnectionString())
		if err != nil {
			log.Fatalf("Failed to initialize Postgres notification repository: %v", err)
		}
		defer func() {
			if closeErr := postgresRepo.Close(); closeErr != nil {
				log.Printf("Error closing notification repository: %v", closeErr)
			}
		}()
		repository = postgresRepo
	default:
		log.Fatalf("Unsupported database type: %s", cfg.Database.Type)
	}

	// Notification channel: the store channel always runs first so the
	// queryable state is never behind the external events.
	channels := []ports.NotificationChannel{notification.NewStoreChannel(repository)}
	switch cfg.NotificationChannelImpl {
	case "kafka":
		producer, err := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
		defer func() {
			if closeErr := producer.Close(); closeErr != nil {
				log.Printf("Error closing Kafka producer: %v", closeErr)
			}
		}()
		channels = append(channels, notification.NewKafkaChannel(producer))
	case "null":
		channels = append(channels, notification.NullChannel{})
	}
	channel := notification.NewFanoutChannel(channels...)

	// Export file storage
	store, err := storage.NewDiskStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("Failed to initialize export file storage: %v", err)
	}

	if cfg.Storage.RetentionEnabled {
		sweeper := storage.NewRetentionSweeper(store, cfg.Storage.RetentionMaxAge, cfg.Storage.RetentionSchedule)
		if err := sweeper.Start(); err != nil {
			log.Fatalf("Failed to start retention sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	// Job queue and executor
	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()

	queue := executor.NewInMemoryJobQueue()
	queue.Start(queueCtx, cfg.Queue.Workers)
	jobExecutor := executor.NewExportJobExecutor(store, channel)

	// Permission checker and type registry
	permissions := identity.NewStaticPermissionChecker(cfg.Permissions.Defaults, cfg.Permissions.Grants)
	registry := usecases.NewTypeRegistry()

	if cfg.ExportTypesPath != "" {
		sourceDB, sqlTypes, err := datasource.LoadTypesFile(cfg.ExportTypesPath)
		if err != nil {
			log.Fatalf("Failed to load export types: %v", err)
		}
		defer sourceDB.Close()

		for _, sqlType := range sqlTypes {
			registry.Register(sqlType, identity.RequirePermission(permissions, sqlType.RequiredPermission()))
		}
	} else {
		log.Printf("No export types file configured, starting with an empty type registry")
	}

	service := usecases.NewExportService(registry, queue, channel, jobExecutor)
	service.RegisterProvider(providers.CSVProvider{})
	service.RegisterProvider(providers.JSONProvider{})

	handler := httpShell.NewExportHandler(service, store, repository, permissions)
	router := httpShell.SetupRoutes(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: metricsMux,
		}

		go func() {
			log.Printf("Starting metrics server on %s%s", metricsServer.Addr, cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("Starting API server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down export service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server forced to shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server forced to shutdown: %v", err)
		}
	}

	// Stop accepting jobs and let running exports observe cancellation.
	queueCancel()
	queue.Wait()

	log.Println("Export service stopped")
}
