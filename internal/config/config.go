package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ocf-deckgen/internal/llm"
	"ocf-deckgen/pkg/storage"
)

type Config struct {
	Port        string
	LogLevel    string
	Environment string

	LLM     llm.Config
	Storage *storage.StorageConfig

	JobTimeout        time.Duration // Durée max d'une génération complète
	MaxParallelSlides int           // 0 = toutes les slides en parallèle
	JobRetention      time.Duration // 0 = pas d'éviction des jobs terminés
	CleanupInterval   time.Duration

	AllowedOrigins []string // Vide = toutes les origines (développement)
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LLM: llm.Config{
			Provider:        getEnv("LLM_PROVIDER", llm.ProviderOpenAI),
			BaseURL:         getEnv("LLM_BASE_URL", ""),
			APIKey:          getEnv("LLM_API_KEY", ""),
			Model:           getEnv("LLM_MODEL", "typhoon-v2.1-12b-instruct"),
			MaxOutputTokens: getEnvInt("LLM_MAX_OUTPUT_TOKENS", 4096),
			CallTimeout:     getEnvDuration("LLM_CALL_TIMEOUT", 2*time.Minute),
		},
		Storage: &storage.StorageConfig{
			Type:      getEnv("STORAGE_TYPE", storage.TypeFilesystem),
			BasePath:  getEnv("STORAGE_PATH", "./storage"),
			Endpoint:  getEnv("GARAGE_ENDPOINT", ""),
			AccessKey: getEnv("GARAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("GARAGE_SECRET_KEY", ""),
			Bucket:    getEnv("GARAGE_BUCKET", "ocf-decks"),
			Region:    getEnv("GARAGE_REGION", "garage"),
		},
		JobTimeout:        getEnvDuration("JOB_TIMEOUT", 15*time.Minute),
		MaxParallelSlides: getEnvInt("MAX_PARALLEL_SLIDES", 0),
		JobRetention:      getEnvDuration("JOB_RETENTION", 0),
		CleanupInterval:   getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		AllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

// Validate rejette les combinaisons que le service ne sait pas démarrer
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderOllama:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.Storage.Type {
	case storage.TypeFilesystem, storage.TypeGarage, storage.TypeNone:
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("LLM_MAX_OUTPUT_TOKENS must be positive, got %d", c.LLM.MaxOutputTokens)
	}
	if c.MaxParallelSlides < 0 {
		return fmt.Errorf("MAX_PARALLEL_SLIDES must be >= 0, got %d", c.MaxParallelSlides)
	}
	if c.JobRetention > 0 && c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive when JOB_RETENTION is set")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(key), ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}
