// Package config holds the environment-driven runtime configuration for the
// long-running hub and node processes. Per-job execution parameters
// (ExecConfig) are a separate, job-file-driven concern; this package governs
// process-level concerns: ports, log level, database DSN, auth secrets.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Config holds process-wide configuration for the hub and node binaries.
type Config struct {
	Environment         string // "development", "staging", "production"
	LogLevel            string
	RESTPort            string
	SocketPort          string
	DatabaseDSN         string
	DatabaseMaxConns    int
	JWTSecret           string
	JWTDurationHours    int
	AuthEnabled         bool
	AllowedOrigins      []string
	AllowPrivateTargets bool
	// CORSAllowCredentials enables Access-Control-Allow-Credentials for
	// requests whose Origin is in AllowedOrigins.
	CORSAllowCredentials bool
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RESTPort:            getEnv("HUB_REST_PORT", "8080"),
		SocketPort:          getEnv("HUB_SOCKET_PORT", "8081"),
		DatabaseDSN:         getEnv("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvAsInt("DATABASE_MAX_CONNS", 10),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTDurationHours:    getEnvAsInt("JWT_DURATION_HOURS", 24),
		AuthEnabled:         getEnvAsBool("AUTH_ENABLED", true),
		AllowedOrigins:      getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		AllowPrivateTargets: getEnvAsBool("ALLOW_PRIVATE_TARGETS", false),
		CORSAllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
	}
	cfg.validateJWTSecret()
	return cfg
}

func (c *Config) validateJWTSecret() {
	if c.JWTSecret == "" {
		secret := generateRandomSecret(32)
		c.JWTSecret = secret
		zap.L().Warn("JWT_SECRET not set, generated random secret; set JWT_SECRET in production",
			zap.String("generated_secret_preview", secret[:8]+"..."))
		return
	}
	if len(c.JWTSecret) < 32 {
		zap.L().Warn("JWT_SECRET is less than 32 characters; use a longer secret")
	}
}

func generateRandomSecret(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-secret-%d", os.Getpid())
	}
	return base64.URLEncoding.EncodeToString(b)[:length]
}

// IsOriginAllowed checks an Origin header against the configured allow list.
func (c *Config) IsOriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	return strings.Split(v, ",")
}
