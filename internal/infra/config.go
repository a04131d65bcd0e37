package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"magiceraser/internal/mask"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                string
	LogLevel              string
	Port                  string
	DatabaseURL           string
	StoragePath           string
	GeoIPDBPath           string
	EditProvider          string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	DefaultLocale         string
	DefaultContainerWidth int
	DefaultBrushSize      int
	MaskFilter            string
	MaxUploadBytes        int64
	SessionTTL            time.Duration
	EditTimeout           time.Duration
	HTTPReadTimeout       time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
	RateLimitPerMin       int
	CORSAllowedOrigins    []string
}

// Providers accepted by EDIT_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderGenAI     = "genai"
	ProviderSynthetic = "synthetic"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		StoragePath:           getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:           os.Getenv("GEOIP_DB_PATH"),
		EditProvider:          strings.ToLower(getEnv("EDIT_PROVIDER", ProviderGemini)),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		DefaultLocale:         getEnv("DEFAULT_LOCALE", "en"),
		DefaultContainerWidth: getEnvInt("DEFAULT_CONTAINER_WIDTH", 1024),
		DefaultBrushSize:      getEnvInt("DEFAULT_BRUSH_SIZE", mask.DefaultBrush),
		MaskFilter:            getEnv("MASK_FILTER", "bilinear"),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		SessionTTL:            time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)),
		EditTimeout:           time.Second * time.Duration(getEnvInt("EDIT_TIMEOUT_SECONDS", 0)),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 600),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	switch cfg.EditProvider {
	case ProviderGemini, ProviderGenAI, ProviderSynthetic:
	default:
		return nil, fmt.Errorf("EDIT_PROVIDER %q is not one of gemini, genai, synthetic", cfg.EditProvider)
	}

	if _, err := mask.ParseFilter(cfg.MaskFilter); err != nil {
		return nil, fmt.Errorf("MASK_FILTER: %w", err)
	}

	if err := mask.ValidBrush(cfg.DefaultBrushSize); err != nil {
		return nil, fmt.Errorf("DEFAULT_BRUSH_SIZE: %w", err)
	}

	if cfg.DefaultContainerWidth <= 0 {
		return nil, fmt.Errorf("DEFAULT_CONTAINER_WIDTH must be positive")
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
