package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Stripe    StripeConfig
	Greetings GreetingsConfig
	Dispatch  DispatchConfig
}

type ServerConfig struct {
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type StripeConfig struct {
	SecretKey string
}

type GreetingsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type DispatchConfig struct {
	// Enabled starts the in-process daily ticker. The HTTP trigger endpoint
	// works either way.
	Enabled   bool
	Interval  time.Duration
	Timezone  string
	CronToken string
}

func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "appuser"),
			Password: getEnv("DB_PASSWORD", "apppassword"),
			DBName:   getEnv("DB_NAME", "afrikoin_db"),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		Greetings: GreetingsConfig{
			BaseURL: getEnv("GREETINGS_API_URL", "http://localhost:8090/generate"),
			APIKey:  getEnv("GREETINGS_API_KEY", ""),
			Timeout: getEnvDuration("GREETINGS_TIMEOUT", 20*time.Second),
		},
		Dispatch: DispatchConfig{
			Enabled:   getEnvBool("DISPATCH_ENABLED", false),
			Interval:  getEnvDuration("DISPATCH_INTERVAL", 24*time.Hour),
			Timezone:  getEnv("DISPATCH_TIMEZONE", "UTC"),
			CronToken: getEnv("DISPATCH_CRON_TOKEN", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
