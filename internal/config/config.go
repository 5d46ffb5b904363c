package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// VK
	BotToken string
	GroupID  int64

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Admin API
	AdminPort     string
	AdminEmail    string
	AdminPassword string
	JWTSecret     string

	// Redis (optional, stats cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Application
	AppEnv   string
	LogLevel string

	// Game
	AnswerTimeoutSeconds int
	GameThemeID          int

	// Dispatcher
	ChatQueueSize      int
	ChatIdleTTLMinutes int

	// Rate limiting
	RateLimitPerIP int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:   getEnv("VK_BOT_TOKEN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "quizbot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "quizbot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AdminPort:     getEnv("ADMIN_PORT", "8080"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AnswerTimeoutSeconds: getEnvInt("ANSWER_TIMEOUT_SECONDS", 30),
		GameThemeID:          getEnvInt("GAME_THEME_ID", 0),

		ChatQueueSize:      getEnvInt("CHAT_QUEUE_SIZE", 64),
		ChatIdleTTLMinutes: getEnvInt("CHAT_IDLE_TTL_MINUTES", 30),

		RateLimitPerIP: getEnvInt("RATE_LIMIT_PER_IP", 100),
	}

	groupStr := getEnv("VK_GROUP_ID", "")
	if groupStr != "" {
		id, err := strconv.ParseInt(groupStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VK_GROUP_ID: %w", err)
		}
		cfg.GroupID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("VK_BOT_TOKEN is required")
	}
	if c.GroupID == 0 {
		return fmt.Errorf("VK_GROUP_ID is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if c.AnswerTimeoutSeconds <= 0 {
		return fmt.Errorf("ANSWER_TIMEOUT_SECONDS must be positive")
	}
	if c.ChatQueueSize <= 0 {
		return fmt.Errorf("CHAT_QUEUE_SIZE must be positive")
	}
	if c.ChatIdleTTLMinutes <= 0 {
		return fmt.Errorf("CHAT_IDLE_TTL_MINUTES must be positive")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.AdminPassword == "admin" || c.AdminPassword == "password" {
		return fmt.Errorf("ADMIN_PASSWORD must be changed from default in production")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetAnswerTimeout() time.Duration {
	return time.Duration(c.AnswerTimeoutSeconds) * time.Second
}

func (c *Config) GetChatIdleTTL() time.Duration {
	return time.Duration(c.ChatIdleTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
