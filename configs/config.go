package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the process/environment layer, loaded once at startup by every
// cmd/ entrypoint. JSON file configs (locations, title filters, modes,
// scoring, sources, companies) live alongside it in files.go.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	BlobLocalDir  string
	BlobThreshold int // bytes; rawPayload/content above this size archives to blob storage

	APIPort     string
	APIAuthToken string // shared-secret bearer token for the browse/action API; empty disables auth

	NotifierJobsBotToken string
	NotifierJobsChatID   string
	NotifierLogsBotToken string
	NotifierLogsChatID   string

	SearchAPIKeys    []string
	SearchAPIBaseURL string

	LLMKeys           []string // up to 3 primary keys
	LLMFallbackKey    string
	LLMBaseURL        string
	LLMFallbackBaseURL string
	LLMModel          string
	LLMFallbackModel  string

	DryRun             bool
	TZ                 string
	AIAnalysisMinScore int
	MaxJobAgeDays      int

	ConfigDir string // directory holding the JSON config files (§6)

	TracingEndpoint string
	TracingEnabled  bool
}

func LoadConfig() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "jobradar"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "jobradar"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		BlobLocalDir:  getEnv("BLOB_LOCAL_DIR", "./data/blobs"),
		BlobThreshold: getEnvAsInt("BLOB_THRESHOLD_BYTES", 32*1024),

		APIPort:      getEnv("API_PORT", "8080"),
		APIAuthToken: getEnv("API_AUTH_TOKEN", ""),

		NotifierJobsBotToken: getEnv("NOTIFIER_JOBS_BOT_TOKEN", ""),
		NotifierJobsChatID:   getEnv("NOTIFIER_JOBS_CHAT_ID", ""),
		NotifierLogsBotToken: getEnv("NOTIFIER_LOGS_BOT_TOKEN", ""),
		NotifierLogsChatID:   getEnv("NOTIFIER_LOGS_CHAT_ID", ""),

		SearchAPIKeys:    getEnvAsList("SEARCH_API_KEYS", nil),
		SearchAPIBaseURL: getEnv("SEARCH_API_BASE_URL", "https://api.search.example.com"),

		LLMKeys:             getEnvAsList("LLM_API_KEYS", nil),
		LLMFallbackKey:      getEnv("LLM_FALLBACK_API_KEY", ""),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMFallbackBaseURL:  getEnv("LLM_FALLBACK_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMFallbackModel:    getEnv("LLM_FALLBACK_MODEL", "gpt-4o-mini"),

		DryRun:             getEnvAsBool("DRY_RUN", false),
		TZ:                 getEnv("TZ", "America/Toronto"),
		AIAnalysisMinScore: getEnvAsInt("AI_ANALYSIS_MIN_SCORE", 50),
		MaxJobAgeDays:      getEnvAsInt("MAX_JOB_AGE_DAYS", 90),

		ConfigDir: getEnv("CONFIG_DIR", "./configs/data"),

		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getEnvAsBool("TRACING_ENABLED", false),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvAsList splits a comma-separated env var, trimming blanks. An empty
// or unset var yields fallback, matching the spec's "if empty, disabled"
// knob semantics for search-API keys and LLM keys.
func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
