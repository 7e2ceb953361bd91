package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Runtime
	Environment  string
	FunctionName string

	// AWS configuration
	AWSRegion  string
	AuditTable string
	EventBus   string

	// Dependency caching
	CacheMaxAge time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableTracing bool
	EnableMetrics bool

	// Metrics
	MetricsNamespace string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		FunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", "lambdaboot"),

		AWSRegion:  getEnv("AWS_REGION", "us-west-2"),
		AuditTable: getEnv("AUDIT_TABLE", "lambdaboot-invocations"),
		EventBus:   getEnv("EVENT_BUS_NAME", "lambdaboot-events"),

		CacheMaxAge: time.Duration(getEnvInt("CACHE_MAX_AGE_MS", 300000)) * time.Millisecond,

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "Lambdaboot"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.CacheMaxAge <= 0 {
		return fmt.Errorf("CACHE_MAX_AGE_MS must be positive")
	}

	if c.Environment == "production" {
		if c.AuditTable == "" {
			return fmt.Errorf("AUDIT_TABLE is required in production")
		}
		if c.EventBus == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Environ returns the process environment as a flat string mapping. It is
// the collaborator behind the "env" execution context key.
func Environ() map[string]string {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
