package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Jwt      JwtConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventsTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type JwtConfig struct {
	Secret string
}

type AIConfig struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	ModelOverride   string // forces a specific model id, skipping key priority
	AnthropicModel  string
	OpenAIModel     string
	OllamaBaseURL   string
	OllamaModel     string
	CriticThreshold int
	MaxIterations   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventsTopic:        getEnv("ORCH_EVENTS_TOPIC_NAME", "ORCHESTRATION_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Jwt: JwtConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			ModelOverride:   getEnv("LLM_MODEL_OVERRIDE", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "llama3"),
			CriticThreshold: getEnvAsInt("CRITIC_SCORE_THRESHOLD", 7),
			MaxIterations:   getEnvAsInt("MAX_REVISION_ITERATIONS", 3),
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
