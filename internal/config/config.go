package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime tunables. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	Port string

	// Matching
	SimilarityThreshold float64
	MaxSearchResults    int

	// Segmenter
	SilenceWindow   time.Duration
	SilenceLevel    float64
	MaxBufferFrames int

	// Audio defaults
	SampleRate int
	Encoding   string
	Language   string

	// Providers
	GeminiAPIKey string
	OpenAIAPIKey string

	// Storage (optional; in-memory fallbacks are used when unset)
	PostgresURI string
	MongoURI    string
	MongoDB     string

	JWTSecret string
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.88),
		MaxSearchResults:    getEnvInt("MAX_SEARCH_RESULTS", 5),
		SilenceWindow:       getEnvDuration("SILENCE_WINDOW", 800*time.Millisecond),
		SilenceLevel:        getEnvFloat("SILENCE_LEVEL", 500),
		MaxBufferFrames:     getEnvInt("MAX_BUFFER_FRAMES", 512),
		SampleRate:          getEnvInt("SAMPLE_RATE", 16000),
		Encoding:            getEnv("AUDIO_ENCODING", "LINEAR16"),
		Language:            getEnv("LANGUAGE", "en-US"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		PostgresURI:         os.Getenv("POSTGRES_URI"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "interview_mate"),
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
	}

	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be within [0,1], got %f", cfg.SimilarityThreshold)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
