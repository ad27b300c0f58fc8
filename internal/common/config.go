package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env      string
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Google   GoogleConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds history store configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" | "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract           string
	Language            string
	TessdataDir         string
	HeicConverter       string
	EnableTSVConfidence bool
	PSM                 int
	ArtifactCacheDir    string
	Timeout             time.Duration
}

// GoogleConfig holds the Google REST endpoints used for profile lookup and sending
type GoogleConfig struct {
	UserInfoURL string
	GmailURL    string
	Timeout     time.Duration
}

// IngestConfig holds watch-folder configuration
type IngestConfig struct {
	WatchDirs   []string
	Debounce    time.Duration
	Workers     int // files processed concurrently; 1 keeps arrival order
	QueueSize   int
	FileTimeout time.Duration
}

// LoadConfig loads configuration from environment variables. Outside production a
// .env file in the working directory is read first; real env vars take precedence.
func LoadConfig() *Config {
	env := getEnv("APP_ENV", "development")
	if env != "production" {
		_ = godotenv.Load()
	}
	return &Config{
		Env: env,
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "file:swiftscan.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":9090"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:           getEnv("TESSERACT_BIN", "tesseract"),
			Language:            getEnv("OCR_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			HeicConverter:       getEnv("HEIC_CONVERTER", "magick"),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", false),
			PSM:                 getEnvAsInt("OCR_PSM", 0),
			ArtifactCacheDir:    getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			Timeout:             getEnvAsDuration("OCR_TIMEOUT", 45*time.Second),
		},
		Google: GoogleConfig{
			UserInfoURL: getEnv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v3/userinfo"),
			GmailURL:    getEnv("GOOGLE_GMAIL_URL", "https://gmail.googleapis.com/gmail/v1"),
			Timeout:     getEnvAsDuration("GOOGLE_TIMEOUT", 20*time.Second),
		},
		Ingest: IngestConfig{
			WatchDirs:   getEnvAsList("WATCH_DIRS", nil),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			Workers:     getEnvAsInt("WATCH_WORKERS", 1),
			QueueSize:   getEnvAsInt("WATCH_QUEUE_SIZE", 256),
			FileTimeout: getEnvAsDuration("WATCH_FILE_TIMEOUT", 3*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// comma separated, blanks dropped
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.Language == "" {
		return NewAppError("CONFIG_ERROR", "OCR_LANG is required", ErrInvalidInput)
	}
	return nil
}
