package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Gemini    GeminiConfig
	Opik      OpikConfig
	Qdrant    QdrantConfig
	Adzuna    AdzunaConfig
	Limits    LimitsConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type GeminiConfig struct {
	APIKey           string
	ChatModel        string
	JudgeModel       string
	EmbedModel       string
	ChatTemperature  float32
	JudgeTemperature float32
	MaxOutputTokens  int32
	RetryMaxAttempts int
}

type OpikConfig struct {
	APIKey            string
	Workspace         string
	Project           string
	URL               string
	EvaluationEnabled bool
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type AdzunaConfig struct {
	AppID  string
	AppKey string
}

type LimitsConfig struct {
	MaxMessageLength int
	MaxPDFSize       int64
	MaxPDFPages      int
	HistoryMessages  int
}

type RateLimitConfig struct {
	Window        time.Duration
	MaxRequests   int
	SweepInterval time.Duration
}

type WorkerConfig struct {
	Concurrency int
	QueueSize   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", true),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "careerforge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "30m"),
		},
		Gemini: GeminiConfig{
			APIKey:           getEnv("GEMINI_API_KEY", getEnv("GOOGLE_GENERATIVE_AI_API_KEY", "")),
			ChatModel:        getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash-lite"),
			JudgeModel:       getEnv("GEMINI_JUDGE_MODEL", "gemini-2.0-flash-lite"),
			EmbedModel:       getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			ChatTemperature:  getEnvAsFloat32("GEMINI_CHAT_TEMPERATURE", 0.7),
			JudgeTemperature: getEnvAsFloat32("GEMINI_JUDGE_TEMPERATURE", 0.3),
			MaxOutputTokens:  int32(getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 4096)),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
		Opik: OpikConfig{
			APIKey:            getEnv("OPIK_API_KEY", ""),
			Workspace:         getEnv("OPIK_WORKSPACE", "careerforgeai"),
			Project:           getEnv("OPIK_PROJECT", "skill-gap-hackathon"),
			URL:               getEnv("OPIK_URL", "https://www.comet.com/opik/api"),
			EvaluationEnabled: getEnvAsBool("EVALUATION_ENABLED", false),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "careerforge_jobs"),
		},
		Adzuna: AdzunaConfig{
			AppID:  getEnv("ADZUNA_APP_ID", ""),
			AppKey: getEnv("ADZUNA_APP_KEY", ""),
		},
		Limits: LimitsConfig{
			MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 50000),
			MaxPDFSize:       getEnvAsInt64("MAX_PDF_SIZE", 10485760),
			MaxPDFPages:      getEnvAsInt("MAX_PDF_PAGES", 50),
			HistoryMessages:  getEnvAsInt("HISTORY_MESSAGES", 3),
		},
		RateLimit: RateLimitConfig{
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", "60s"),
			MaxRequests:   getEnvAsInt("RATE_LIMIT_MAX", 30),
			SweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", "5m"),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 2),
			QueueSize:   getEnvAsInt("EVALUATION_QUEUE_SIZE", 100),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// TracingEnabled reports whether responses get a trace id and a background judge evaluation.
func (c *Config) TracingEnabled() bool {
	return c.Opik.APIKey != "" || c.Opik.EvaluationEnabled
}

// BodyLimit caps non-multipart bodies and the in-memory prefetch of multipart
// ones. Uploads above it are still parsed and rejected by the validator.
func (c *Config) BodyLimit() int {
	return int(c.Limits.MaxPDFSize) + c.Limits.MaxMessageLength*4 + 2<<20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
