package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config application-wide settings
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Board     BoardConfig
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	ClientDir    string
}

// WebSocketConfig websocket settings
type WebSocketConfig struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
}

// CORSConfig CORS settings
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// BoardConfig drawing board limits
type BoardConfig struct {
	APIRateLimit    int // requests per minute on the HTTP board API
	MaxMessageBytes int
}

// Load reads configuration from the environment
func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":3000"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
			ClientDir:    getEnv("CLIENT_DIR", "./client"),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:   getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize:  getInt("WS_WRITE_BUFFER_SIZE", 4096),
			HandshakeTimeout: getDuration("WS_HANDSHAKE_TIMEOUT", 10*time.Second),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		Board: BoardConfig{
			APIRateLimit:    getInt("BOARD_API_RATE_LIMIT", 60),
			MaxMessageBytes: getInt("BOARD_MAX_MESSAGE_BYTES", 1024*1024),
		},
	}
}

// getEnv reads a string variable with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt reads an integer variable
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getDuration reads a duration variable; a bare number is seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
