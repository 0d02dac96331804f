package config

import (
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Tokens
	JWTSecret            string
	JWTAccessExpiry      time.Duration
	RefreshTokenExpiry   time.Duration
	ResetTokenExpiry     time.Duration
	VerifyTokenExpiry    time.Duration
	TokenCleanupInterval time.Duration

	// Roles
	DefaultRole string

	// OAuth providers
	GoogleClientID string
	AppleClientID  string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "auth_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:      parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		RefreshTokenExpiry:   parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		ResetTokenExpiry:     parseDuration(getEnv("RESET_TOKEN_EXPIRY", "1h"), time.Hour),
		VerifyTokenExpiry:    parseDuration(getEnv("VERIFY_TOKEN_EXPIRY", "24h"), 24*time.Hour),
		TokenCleanupInterval: parseDuration(getEnv("TOKEN_CLEANUP_INTERVAL", "1h"), time.Hour),

		DefaultRole: getEnv("DEFAULT_ROLE", "individual"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		AppleClientID:  getEnv("APPLE_CLIENT_ID", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
