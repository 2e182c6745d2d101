package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// Poller
	PollInterval          time.Duration
	UnknownStateThreshold int

	// Scheduler
	SchedulerTimeout time.Duration
	TemplateDir      string
	StateMappingPath string

	// Storage
	ModelsBasePath string
	AWSRegion      string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL:           getEnv("DATABASE_URL", "postgres://localhost/seg_orchestrator?sslmode=disable"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		PollInterval:          getDuration("POLL_INTERVAL", 30*time.Second),
		UnknownStateThreshold: getInt("UNKNOWN_STATE_THRESHOLD", 5),
		SchedulerTimeout:      getDuration("SCHEDULER_TIMEOUT", 30*time.Second),
		TemplateDir:           getEnv("TEMPLATE_DIR", "templates"),
		StateMappingPath:      getEnv("STATE_MAPPING_PATH", ""),
		ModelsBasePath:        getEnv("MODELS_BASE_PATH", "/models"),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
