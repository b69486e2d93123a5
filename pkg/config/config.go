package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseDriver   string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	LogLevel   string
	LogConsole bool

	FirebaseCredentials string

	RealtimeDriver    string
	RedisURL          string
	GoogleProjectID   string
	GooglePubSubTopic string
	GoogleCredentials string

	// Fan-out tuning
	FanOutCallTimeout time.Duration
	FanOutConcurrency int

	ReminderInterval time.Duration
	DailyTaskCron    string
	Timezone         string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:      getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=collab port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour), // 7 days

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogConsole: getBool("LOG_CONSOLE", true),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		RealtimeDriver:    getEnv("REALTIME_DRIVER", "memory"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("GOOGLE_PUBSUB_TOPIC", "collab-realtime"),
		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS", ""),

		FanOutCallTimeout: getDuration("FANOUT_CALL_TIMEOUT", 5*time.Second),
		FanOutConcurrency: getInt("FANOUT_CONCURRENCY", 8),

		ReminderInterval: getDuration("REMINDER_INTERVAL", time.Minute),
		DailyTaskCron:    getEnv("DAILY_TASK_CRON", "0 8 * * *"),
		Timezone:         getEnv("TIMEZONE", "UTC"),
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
