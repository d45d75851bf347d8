package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RedisAddr    string
	ServiceName  string

	// Session persistence
	SessionTTL    time.Duration
	SessionCookie string

	// CM360 gateway and same-origin proxy
	CM360BaseURL     string
	CM360ProxyPrefix string
	CM360UpstreamURL string
	UserInfoURL      string
	AuthTimeout      time.Duration

	// PublishConcurrency bounds in-flight requests per batch; 1 is sequential.
	PublishConcurrency int
	// CM360RateLimit is the sustained requests per second per operator; 0 disables throttling.
	CM360RateLimit int
	CM360RateBurst int

	// Assistant
	GeminiAPIKey          string
	GeminiModel           string
	AssistantSystemPrompt string

	// TechVocabulary overrides the default tech tokens used by the taxonomy parser.
	TechVocabulary []string

	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
	Environment       string
}

// Load reads an optional .env file, parses environment variables and returns
// a Config populated with defaults when variables are absent.
func Load() Config {
	// .env is optional; real environment variables win over its values
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Port = getenv("PORT", "8787")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 15*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 60*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.ServiceName = getenv("SERVICE_NAME", "cm360-manager")

	cfg.SessionTTL = envDuration("SESSION_TTL", 12*time.Hour)
	cfg.SessionCookie = getenv("SESSION_COOKIE", "cm360_session")

	cfg.CM360UpstreamURL = getenv("CM360_UPSTREAM_URL", "https://dfareporting.googleapis.com/dfareporting/v4")
	cfg.CM360ProxyPrefix = getenv("CM360_PROXY_PREFIX", "/api/cm360")
	// the gateway talks to CM360 directly unless pointed at the proxy
	cfg.CM360BaseURL = getenv("CM360_BASE_URL", cfg.CM360UpstreamURL)
	cfg.UserInfoURL = getenv("USERINFO_URL", "https://www.googleapis.com/oauth2/v3/userinfo")
	cfg.AuthTimeout = envDuration("AUTH_TIMEOUT", 10*time.Second)

	cfg.PublishConcurrency = envInt("PUBLISH_CONCURRENCY", 1)
	if cfg.PublishConcurrency < 1 {
		cfg.PublishConcurrency = 1
	}

	cfg.CM360RateLimit = envInt("CM360_RATE_LIMIT", 10)
	cfg.CM360RateBurst = envInt("CM360_RATE_BURST", 10)

	cfg.GeminiAPIKey = getenv("GEMINI_API_KEY", "")
	cfg.GeminiModel = getenv("GEMINI_MODEL", "gemini-2.5-flash")
	cfg.AssistantSystemPrompt = getenv("ASSISTANT_SYSTEM_PROMPT", "")

	cfg.TechVocabulary = envList("TECH_VOCABULARY")

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)
	cfg.Environment = getenv("ENVIRONMENT", "development")

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}

// envList splits a comma-separated variable, dropping blanks. Unset yields nil.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
