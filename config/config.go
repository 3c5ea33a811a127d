package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultForecastAPIURL = "http://localhost:8000/get-forecast/"

type Config struct {
	ForecastAPIURL    string
	ServerPort        string
	HandoffTTL        int // минуты
	RequestTimeout    int // секунды, 0 - без таймаута
	RateLimitRPS      float64
	RateLimitBurst    int
	DedupeSubmissions bool
	LogLevel          string
}

func Load() (*Config, error) {
	// Загружаем .env файл если существует
	godotenv.Load()

	config := &Config{
		ForecastAPIURL:    getEnv("FORECAST_API_URL", DefaultForecastAPIURL),
		ServerPort:        getEnv("SERVER_PORT", "3000"),
		HandoffTTL:        getEnvAsInt("HANDOFF_TTL", 10),
		RequestTimeout:    getEnvAsInt("REQUEST_TIMEOUT", 0),
		RateLimitRPS:      getEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 1),
		DedupeSubmissions: getEnvAsBool("DEDUPE_SUBMISSIONS", true),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	u, err := url.Parse(c.ForecastAPIURL)
	if err != nil {
		return fmt.Errorf("некорректный FORECAST_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("FORECAST_API_URL должен использовать http или https, получено %q", c.ForecastAPIURL)
	}
	if c.HandoffTTL <= 0 {
		return fmt.Errorf("HANDOFF_TTL должен быть положительным, получено %d", c.HandoffTTL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT не может быть отрицательным")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST должен быть положительным при включенном ограничении")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
