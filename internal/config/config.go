package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Limits     LimitsConfig
	History    HistoryConfig
	Generation GenerationConfig
	Export     ExportConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	Domains     []string // allowed websocket origins
}

type LimitsConfig struct {
	MaxRoomSize       int
	MaxObjects        int
	MaxMessageSize    int
	MaxRooms          int
	MaxObjectDepth    int
	MaxObjectElements int
	MessagesPerSecond float64
	BurstSize         int
}

type HistoryConfig struct {
	Capacity int
}

type GenerationConfig struct {
	URL        string // empty disables generate-variation
	Timeout    time.Duration
	MaxRetries int
}

type ExportConfig struct {
	Width      int
	Height     int
	Background string
}

// Load: reads .env (if present) and the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8080"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "canvas.log"),
			Domains:     getEnvAsList("DOMAINS"),
		},
		Limits: LimitsConfig{
			MaxRoomSize:       getEnvAsInt("MAX_ROOM_SIZE", 10),
			MaxObjects:        getEnvAsInt("MAX_OBJECTS", 1000),
			MaxMessageSize:    getEnvAsInt("MAX_MESSAGE_SIZE", 1<<20),
			MaxRooms:          getEnvAsInt("MAX_ROOMS", 100),
			MaxObjectDepth:    getEnvAsInt("MAX_OBJECT_DEPTH", 10),
			MaxObjectElements: getEnvAsInt("MAX_OBJECT_ELEMENTS", 1000),
			MessagesPerSecond: getEnvAsFloat("MESSAGES_PER_SECOND", 30),
			BurstSize:         getEnvAsInt("BURST_SIZE", 10),
		},
		History: HistoryConfig{
			Capacity: getEnvAsInt("HISTORY_CAPACITY", 50),
		},
		Generation: GenerationConfig{
			URL:        getEnv("GENERATION_URL", ""),
			Timeout:    getEnvAsDuration("GENERATION_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("GENERATION_MAX_RETRIES", 2),
		},
		Export: ExportConfig{
			Width:      getEnvAsInt("EXPORT_WIDTH", 1280),
			Height:     getEnvAsInt("EXPORT_HEIGHT", 720),
			Background: getEnv("EXPORT_BACKGROUND", "#ffffff"),
		},
	}
}

// IsProduction: true when GO_ENV=production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
