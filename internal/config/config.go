package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by BACKEND.
const (
	BackendRelational = "relational"
	BackendDocument   = "document"
	BackendOffline    = "offline"
)

type Config struct {
	Port    string
	Backend string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret            string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	AdminAPIKey          string
	CORSOrigins          []string

	SeedQuestions   bool
	MockGenerator   bool
	AnthropicModel  string
	AnthropicAPIKey string
	// GeneratorCLIPath points at a local LLM command-line tool. When set it
	// drafts questions instead of the API.
	GeneratorCLIPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env")
	}

	return &Config{
		Port:    getEnv("PORT", "8080"),
		Backend: strings.ToLower(getEnv("BACKEND", BackendOffline)),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "gisa_user"),
		DBPassword: getEnv("DB_PASSWORD", "gisa_password"),
		DBName:     getEnv("DB_NAME", "gisa_quiz"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "data/gisa.db"),

		JWTSecret:            getEnv("JWT_SECRET", "gisa-quiz-dev-signing-key"),
		SessionTTL:           getDuration("SESSION_TTL", 72*time.Hour),
		SessionSweepInterval: getDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		AdminAPIKey:          getEnv("ADMIN_API_KEY", ""),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),

		SeedQuestions:   getBool("SEED_QUESTIONS", true),
		MockGenerator:   getBool("MOCK_GENERATOR", false),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		GeneratorCLIPath: getEnv("GENERATOR_CLI_PATH", ""),
	}
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, val, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %t", key, val, fallback)
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
