package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"
)

// Config holds all application configuration
type Config struct {
	// Server configuration (with Clowder integration)
	Server ServerConfig `json:"server"`

	// Storage configuration for export files
	Storage StorageConfig `json:"storage"`

	// Database configuration for notification state (uses Clowder when available)
	Database DatabaseConfig `json:"database"`

	// Kafka configuration for notification events (uses Clowder when available)
	Kafka KafkaConfig `json:"kafka"`

	// Metrics configuration (uses Clowder when available)
	Metrics MetricsConfig `json:"metrics"`

	// Queue configuration for the background job executor
	Queue QueueConfig `json:"queue"`

	// Permissions configuration for the static permission checker
	Permissions PermissionsConfig `json:"permissions"`

	// ExportTypesPath points to a JSON file declaring SQL-backed export types
	ExportTypesPath string `json:"export_types_path"`

	// NotificationChannelImpl selects the notification event backend
	// (store, kafka, null). The store channel is always wired in addition.
	NotificationChannelImpl string `json:"notification_channel_impl"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Port is the main HTTP server port
	Port int `json:"port"`

	// PrivatePort is the port for internal/admin endpoints
	PrivatePort int `json:"private_port"`

	// Host is the server bind address
	Host string `json:"host"`

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for HTTP responses. Downloads can be large, keep it high.
	WriteTimeout time.Duration `json:"write_timeout"`

	// ShutdownTimeout for graceful shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// StorageConfig contains export file storage settings
type StorageConfig struct {
	// Root directory for published export files
	Root string `json:"root"`

	// RetentionEnabled turns the retention sweeper on
	RetentionEnabled bool `json:"retention_enabled"`

	// RetentionMaxAge is how long a published file stays downloadable
	RetentionMaxAge time.Duration `json:"retention_max_age"`

	// RetentionSchedule is a cron expression or @every descriptor
	RetentionSchedule string `json:"retention_schedule"`
}

// DatabaseConfig contains notification store settings
type DatabaseConfig struct {
	// Type of notification store (memory, sqlite, postgres)
	Type string `json:"type"`

	// Path to SQLite database file
	Path string `json:"path"`

	// Host for PostgreSQL
	Host string `json:"host"`

	// Port for PostgreSQL
	Port int `json:"port"`

	// Name of the database
	Name string `json:"name"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication
	Password string `json:"password"`

	// SSLMode for database connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`
}

// ConnectionString returns a PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Name, d.SSLMode)
}

// KafkaConfig contains Kafka connection settings
type KafkaConfig struct {
	// Enabled indicates if Kafka integration is active
	Enabled bool `json:"enabled"`

	// Brokers is a list of Kafka broker addresses
	Brokers []string `json:"brokers"`

	// Topic for export notification events
	Topic string `json:"topic"`

	// ClientID for Kafka producer identification
	ClientID string `json:"client_id"`
}

// MetricsConfig contains metrics and monitoring settings
type MetricsConfig struct {
	// Port for metrics endpoint
	Port int `json:"port"`

	// Path for metrics endpoint
	Path string `json:"path"`

	// Enabled indicates if metrics are active
	Enabled bool `json:"enabled"`
}

// QueueConfig contains background executor settings
type QueueConfig struct {
	// Workers is the number of concurrent export jobs
	Workers int `json:"workers"`
}

// PermissionsConfig feeds the static permission checker
type PermissionsConfig struct {
	// Defaults are granted to every authenticated user
	Defaults []string `json:"defaults"`

	// Grants are per-username permission lists
	Grants map[string][]string `json:"grants"`
}

// LoadConfig loads configuration from app-common-go (Clowder) with fallback to environment variables
func LoadConfig() (*Config, error) {
	var clowderConfig *clowder.AppConfig

	if clowder.IsClowderEnabled() {
		clowderConfig = clowder.LoadedConfig
		if clowderConfig == nil {
			return nil, fmt.Errorf("failed to load Clowder configuration (nil)")
		}
	}

	config := &Config{
		Server:                  loadServerConfig(clowderConfig),
		Storage:                 loadStorageConfig(),
		Database:                loadDatabaseConfig(clowderConfig),
		Kafka:                   loadKafkaConfig(clowderConfig),
		Metrics:                 loadMetricsConfig(clowderConfig),
		Queue:                   loadQueueConfig(),
		Permissions:             loadPermissionsConfig(),
		ExportTypesPath:         getEnv("EXPORT_TYPES_PATH", ""),
		NotificationChannelImpl: getEnv("NOTIFICATION_CHANNEL_IMPL", "store"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadServerConfig loads server configuration with Clowder integration
func loadServerConfig(clowderConfig *clowder.AppConfig) ServerConfig {
	port := getEnvAsInt("PORT", 8000)
	privatePort := getEnvAsInt("PRIVATE_PORT", 9090)
	host := getEnv("HOST", "0.0.0.0")

	if clowderConfig != nil {
		if clowderConfig.PublicPort != nil {
			port = *clowderConfig.PublicPort
		}
		if clowderConfig.PrivatePort != nil {
			privatePort = *clowderConfig.PrivatePort
		}
	}

	return ServerConfig{
		Port:            port,
		PrivatePort:     privatePort,
		Host:            host,
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 5*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// loadStorageConfig loads export file storage configuration from environment
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Root:              getEnv("STORAGE_ROOT", "./exports"),
		RetentionEnabled:  getEnvAsBool("STORAGE_RETENTION_ENABLED", true),
		RetentionMaxAge:   getEnvAsDuration("STORAGE_RETENTION_MAX_AGE", 7*24*time.Hour),
		RetentionSchedule: getEnv("STORAGE_RETENTION_SCHEDULE", "@hourly"),
	}
}

// loadDatabaseConfig loads database configuration with Clowder integration
func loadDatabaseConfig(clowderConfig *clowder.AppConfig) DatabaseConfig {
	dbType := getEnv("DB_TYPE", "sqlite")
	dbPath := getEnv("DB_PATH", "./notifications.db")
	host := getEnv("DB_HOST", "localhost")
	port := getEnvAsInt("DB_PORT", 5432)
	name := getEnv("DB_NAME", "export_service")
	username := getEnv("DB_USERNAME", "")
	password := getEnv("DB_PASSWORD", "")
	sslMode := getEnv("DB_SSL_MODE", "disable")

	// Clowder always provides PostgreSQL
	if clowderConfig != nil && clowderConfig.Database != nil {
		dbType = "postgres"
		host = clowderConfig.Database.Hostname
		port = clowderConfig.Database.Port
		name = clowderConfig.Database.Name
		username = clowderConfig.Database.Username
		password = clowderConfig.Database.Password
		sslMode = clowderConfig.Database.SslMode
	}

	return DatabaseConfig{
		Type:     dbType,
		Path:     dbPath,
		Host:     host,
		Port:     port,
		Name:     name,
		Username: username,
		Password: password,
		SSLMode:  sslMode,
	}
}

// loadKafkaConfig loads Kafka configuration with Clowder integration
func loadKafkaConfig(clowderConfig *clowder.AppConfig) KafkaConfig {
	brokers := getEnvAsStringSlice("KAFKA_BROKERS", []string{})
	topic := getEnv("KAFKA_TOPIC", "platform.notifications.ingress")
	enabled := len(brokers) > 0

	if clowderConfig != nil && clowderConfig.Kafka != nil {
		enabled = true
		brokers = []string{}

		for _, broker := range clowderConfig.Kafka.Brokers {
			brokers = append(brokers, fmt.Sprintf("%s:%d", broker.Hostname, *broker.Port))
		}

		for _, topicConfig := range clowderConfig.Kafka.Topics {
			if topicConfig.RequestedName == topic || topicConfig.Name == topic {
				topic = topicConfig.Name
				break
			}
		}
	}

	return KafkaConfig{
		Enabled:  enabled,
		Brokers:  brokers,
		Topic:    topic,
		ClientID: getEnv("KAFKA_CLIENT_ID", "export-service"),
	}
}

// loadMetricsConfig loads metrics configuration with Clowder integration
func loadMetricsConfig(clowderConfig *clowder.AppConfig) MetricsConfig {
	port := getEnvAsInt("METRICS_PORT", 8080)
	path := getEnv("METRICS_PATH", "/metrics")

	if clowderConfig != nil {
		port = clowderConfig.MetricsPort
		path = clowderConfig.MetricsPath
	}

	return MetricsConfig{
		Port:    port,
		Path:    path,
		Enabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// loadQueueConfig loads executor configuration from environment
func loadQueueConfig() QueueConfig {
	return QueueConfig{
		Workers: getEnvAsInt("QUEUE_WORKERS", 4),
	}
}

// loadPermissionsConfig loads the static permission grants from environment.
// PERMISSION_DEFAULTS is a comma-separated permission list applied to every
// user; PERMISSION_GRANTS is "user1=perm:a|perm:b,user2=perm:c".
func loadPermissionsConfig() PermissionsConfig {
	defaults := getEnvAsStringSlice("PERMISSION_DEFAULTS", []string{"export:access"})

	grants := make(map[string][]string)
	for _, entry := range getEnvAsStringSlice("PERMISSION_GRANTS", nil) {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		grants[parts[0]] = strings.Split(parts[1], "|")
	}

	return PermissionsConfig{
		Defaults: defaults,
		Grants:   grants,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	if c.Server.PrivatePort < 1 || c.Server.PrivatePort > 65535 {
		return fmt.Errorf("invalid private port: %d", c.Server.PrivatePort)
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("storage root is required")
	}
	if c.Storage.RetentionEnabled && c.Storage.RetentionSchedule == "" {
		return fmt.Errorf("retention schedule is required when retention is enabled")
	}

	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for SQLite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue workers must be at least 1")
	}

	switch c.NotificationChannelImpl {
	case "store", "kafka", "null":
	default:
		return fmt.Errorf("unsupported notification channel: %s", c.NotificationChannelImpl)
	}

	if c.NotificationChannelImpl == "kafka" {
		if !c.Kafka.Enabled || len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when the kafka notification channel is selected")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when the kafka notification channel is selected")
		}
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
