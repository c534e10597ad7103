package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	LLMProvider    string
	LLMTemperature float64
	LLMTimeout     time.Duration
	SecretsDir     string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	PromptsFile    string

	WindowLimit        int
	Window             time.Duration
	MaxRequests        int
	ClaimOrder         string
	ScenarioCount      int
	RecordsPerScenario int
	CollectLimit       int

	ExportDir   string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 1.0),
		LLMTimeout:     time.Second * time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 180)),
		SecretsDir:     getEnv("SECRETS_DIR", "../secret"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://models.inference.ai.azure.com"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PromptsFile:    os.Getenv("PROMPTS_FILE"),

		WindowLimit:        getEnvInt("WINDOW_LIMIT", 10),
		Window:             time.Second * time.Duration(getEnvInt("WINDOW_SECONDS", 60)),
		MaxRequests:        getEnvInt("MAX_REQUESTS", 95),
		ClaimOrder:         strings.ToLower(getEnv("CLAIM_ORDER", "asc")),
		ScenarioCount:      getEnvInt("SCENARIO_COUNT", 200),
		RecordsPerScenario: getEnvInt("RECORDS_PER_SCENARIO", 20),
		CollectLimit:       getEnvInt("COLLECT_LIMIT", 200),

		ExportDir:   getEnv("EXPORT_DIR", "./exports"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", false),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.LLMProvider {
	case "openai", "openai-json", "gemini":
	default:
		return nil, fmt.Errorf("LLM_PROVIDER %q is not supported", cfg.LLMProvider)
	}

	switch cfg.ClaimOrder {
	case "asc", "desc":
	default:
		return nil, fmt.Errorf("CLAIM_ORDER must be asc or desc, got %q", cfg.ClaimOrder)
	}

	if cfg.WindowLimit <= 0 {
		return nil, fmt.Errorf("WINDOW_LIMIT must be positive")
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("WINDOW_SECONDS must be positive")
	}

	return cfg, nil
}

// ObjectStoreEnabled reports whether exports should go to S3/MinIO instead of the local export directory.
func (c *Config) ObjectStoreEnabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
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

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
	if len(out) == 0 {
		return fallback
	}
	return out
}
