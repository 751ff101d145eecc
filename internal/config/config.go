package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every knob the processes need, read once from the
// environment so components receive explicit values instead of reading
// ambient state.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr   string
	KafkaBroker string

	JWTSecret string

	// Employee registry (directory) collaborator.
	DirectoryBaseURL     string
	DirectoryTimeout     time.Duration
	DirectoryCacheTTL    time.Duration
	InterServiceUser     string
	InterServiceRole     string
	InterServiceTokenTTL time.Duration

	// Payroll automation.
	AutomationEnabled bool
	AutomationSpec    string
	BulkTransactional bool
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8082"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		DirectoryBaseURL:     getEnv("EMPLOYEE_SERVICE_URL", "http://localhost:8081"),
		DirectoryTimeout:     getDuration("EMPLOYEE_SERVICE_TIMEOUT", 10*time.Second),
		DirectoryCacheTTL:    getDuration("EMPLOYEE_CACHE_TTL", 10*time.Minute),
		InterServiceUser:     getEnv("EMPLOYEE_SERVICE_AUTH_USERNAME", "payroll-service"),
		InterServiceRole:     getEnv("EMPLOYEE_SERVICE_AUTH_ROLE", "ADMIN"),
		InterServiceTokenTTL: getDuration("INTER_SERVICE_TOKEN_TTL", 5*time.Minute),

		AutomationEnabled: getBool("PAYROLL_AUTOMATION_ENABLED", true),
		AutomationSpec:    getEnv("PAYROLL_AUTOMATION_SCHEDULE", "0 9 1 * *"),
		BulkTransactional: getBool("PAYROLL_BULK_TRANSACTIONAL", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
