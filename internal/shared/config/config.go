package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"coverletter-backend/internal/shared/telemetry"
)

const (
	defaultGenerationTimeout = 120 * time.Second
	defaultGenerateRate      = 6
	defaultVisibilityTimeout = 300 * time.Second
	defaultWorkerConcurrency = 4
	defaultShutdownTimeout   = 30 * time.Second
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	PreviewBaseURL  string

	SQSQueueURL          string
	SQSVisibilityTimeout time.Duration
	WorkerConcurrency    int
	ShutdownTimeout      time.Duration

	LLMProvider       string
	LLMModel          string
	OpenAIAPIKey      string
	AIBaseURL         string
	GenerationTimeout time.Duration
	BreakerEnabled    bool

	JWTSecret             string
	GenerateRatePerMinute int

	RenderFontPath string
	DOCXFontFamily string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files; real env vars win.
	for _, path := range []string{".env", "cmd/.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				telemetry.Warn("config.dotenv_failed", map[string]any{"path": path, "error": err})
			}
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL", "env": env})
	}

	return Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   env,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin:       splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:           dbURL,
		ObjectStoreType:       normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:         getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:             getEnv("AWS_REGION", ""),
		S3Bucket:              getEnv("S3_BUCKET", ""),
		S3Prefix:              getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:           getEnv("SSE_KMS_KEY_ID", ""),
		PreviewBaseURL:        getEnv("PREVIEW_BASE_URL", "/files/"),
		SQSQueueURL:           getEnv("SQS_QUEUE_URL", ""),
		SQSVisibilityTimeout:  getDuration("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilityTimeout),
		WorkerConcurrency:     max(1, getInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)),
		ShutdownTimeout:       getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LLMProvider:           normalizeProvider(getEnv("LLM_PROVIDER", "aiservice")),
		LLMModel:              getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		AIBaseURL:             getEnv("AI_BASE_URL", "http://localhost:8000"),
		GenerationTimeout:     getDuration("GENERATION_TIMEOUT", defaultGenerationTimeout),
		BreakerEnabled:        getBool("BREAKER_ENABLED", true),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		GenerateRatePerMinute: getInt("GENERATE_RATE_PER_MINUTE", defaultGenerateRate),
		RenderFontPath:        getEnv("RENDER_FONT_PATH", ""),
		DOCXFontFamily:        getEnv("DOCX_FONT_FAMILY", "Malgun Gothic"),
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	telemetry.Warn("config.invalid", map[string]any{"key": key, "value": raw})
	return def
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getBool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "s3") {
		return "s3"
	}
	return "local"
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "placeholder", "none":
		return "placeholder"
	default:
		return "aiservice"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}
