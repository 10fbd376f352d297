package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Nats     NatsConfig
	SMTP     SMTPConfig
	Admin    AdminConfig
	Ai       AIConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type RedisConfig struct {
	URL     string
	Channel string
}

type NatsConfig struct {
	URL     string
	Enabled bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// AdminConfig gates the operator surface. PasswordHash is a bcrypt hash;
// leaving Email or the hash empty disables admin login entirely.
type AdminConfig struct {
	Email        string
	PasswordHash string
	JWTSecret    string
}

// AIConfig holds the process-wide model defaults. Every field can be
// overridden per request by the submitted job payload.
type AIConfig struct {
	LLMProvider       string // "openai", "ollama", "huggingface"
	LLMModel          string
	LLMAPIKey         string
	LLMBaseURL        string
	EmbeddingProvider string // "openai", "ollama", "jina"; empty disables vector search
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string
}

type PipelineConfig struct {
	MaxClaims    int
	Classifier   string // "llm" or "lexical"
	JobRetention time.Duration
	JobTopic     string
	CacheTTL     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			Channel: getEnv("REDIS_JOB_CHANNEL", "research:jobs"),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "AI Research"),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", ""),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			MaxClaims:    getEnvAsInt("VERIFIER_MAX_CLAIMS", 60),
			Classifier:   getEnv("VERIFIER_CLASSIFIER", "llm"),
			JobRetention: time.Duration(getEnvAsInt("JOB_RETENTION_MINUTES", 120)) * time.Minute,
			JobTopic:     getEnv("JOB_EVENTS_TOPIC", "RESEARCH_JOB_EVENTS"),
			CacheTTL:     time.Duration(getEnvAsInt("RETRIEVAL_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
