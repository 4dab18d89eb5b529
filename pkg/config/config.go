package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scanner
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	Env string // development, staging, production

	// Server (status API)
	Port       string
	APIEnabled bool

	// Storage
	DBPath   string // embedded bbolt file, ":memory:" for an in-process store
	Database DatabaseConfig

	// Redis (rate limit + enrichment cache)
	Redis RedisConfig

	Fetcher  FetcherConfig
	Scan     ScanConfig
	Scoring  ScoringConfig
	Notifier NotifierConfig
	Sources  SourcesConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration. Postgres is used only when URL is set.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FetcherConfig tunes the shared HTTP fetcher
type FetcherConfig struct {
	MaxRetries     int
	BackoffBase    float64
	RequestTimeout time.Duration
	UserAgents     []string
}

// ScanConfig controls the scan cycle and its schedule
type ScanConfig struct {
	Interval          time.Duration
	RescanInterval    time.Duration // 0 disables the rescan job
	CycleTimeout      time.Duration // 0 means unbounded
	SourceDeadline    time.Duration
	EnrichParallelism int
	MaxAlertsPerCycle int
}

// ScoringConfig holds decision thresholds and an optional weights file
type ScoringConfig struct {
	GoScore     float64
	ReviewScore float64
	ConfigPath  string
}

// NotifierConfig holds chat notification wiring
type NotifierConfig struct {
	Token      string
	ChatMain   string
	ChatReview string
	Interval   time.Duration
	BaseURL    string
}

// SourcesConfig holds upstream endpoints and the enabled source list
type SourcesConfig struct {
	Enabled   []string // empty means all
	DexChains []string

	DexScreenerBaseURL string
	CoinGeckoBaseURL   string
	CoinListURL        string
	LunarCrushBaseURL  string
	LunarCrushAPIKey   string
	TokenSafetyURL     string
	LPLockURL          string

	ICODropsURL  string
	CoinCodexURL string
	ICOHolderURL string
}

// DefaultUserAgents is the rotation pool used when USER_AGENTS is unset
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Port:       getEnv("PORT", "8089"),
		APIEnabled: getEnvAsBool("API_ENABLED", true),

		DBPath: getEnv("DB_PATH", "./quantum.db"),
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Fetcher: FetcherConfig{
			MaxRetries:     getEnvAsInt("MAX_RETRIES", 5),
			BackoffBase:    getEnvAsFloat("BACKOFF_BASE", 1.5),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "15s"),
			UserAgents:     getEnvAsList("USER_AGENTS", "|", DefaultUserAgents),
		},

		Scan: ScanConfig{
			Interval:          getEnvAsDuration("SCAN_INTERVAL", "6h"),
			RescanInterval:    getEnvAsDuration("RESCAN_INTERVAL", "0s"),
			CycleTimeout:      getEnvAsDuration("CYCLE_TIMEOUT", "0s"),
			SourceDeadline:    getEnvAsDuration("SOURCE_DEADLINE", "60s"),
			EnrichParallelism: getEnvAsInt("ENRICH_PARALLELISM", 8),
			MaxAlertsPerCycle: getEnvAsInt("MAX_ALERTS_PER_CYCLE", 5),
		},

		Scoring: ScoringConfig{
			GoScore:     getEnvAsFloat("GO_SCORE", 70),
			ReviewScore: getEnvAsFloat("REVIEW_SCORE", 40),
			ConfigPath:  getEnv("SCORING_CONFIG", ""),
		},

		Notifier: NotifierConfig{
			Token:      getEnv("NOTIFIER_TOKEN", ""),
			ChatMain:   getEnv("NOTIFIER_CHAT_MAIN", ""),
			ChatReview: getEnv("NOTIFIER_CHAT_REVIEW", ""),
			Interval:   getEnvAsDuration("NOTIFY_INTERVAL", "1s"),
			BaseURL:    getEnv("NOTIFIER_BASE_URL", "https://api.telegram.org"),
		},

		Sources: SourcesConfig{
			Enabled:   getEnvAsList("SOURCES", ",", nil),
			DexChains: getEnvAsList("DEX_CHAINS", ",", []string{"ethereum", "bsc", "solana", "base"}),

			DexScreenerBaseURL: getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
			CoinGeckoBaseURL:   getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			CoinListURL:        getEnv("COINLIST_URL", "https://coinlist.co/api/v1/token_sales"),
			LunarCrushBaseURL:  getEnv("LUNARCRUSH_BASE_URL", "https://lunarcrush.com/api4"),
			LunarCrushAPIKey:   getEnv("LUNARCRUSH_API_KEY", ""),
			TokenSafetyURL:     getEnv("TOKEN_SAFETY_URL", ""),
			LPLockURL:          getEnv("LPLOCK_URL", ""),

			ICODropsURL:  getEnv("ICODROPS_URL", "https://icodrops.com/category/upcoming-ico/"),
			CoinCodexURL: getEnv("COINCODEX_URL", "https://coincodex.com/ico-calendar/"),
			ICOHolderURL: getEnv("ICOHOLDER_URL", "https://icoholder.com/en/icos/upcoming"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Scoring.ReviewScore < 0 || c.Scoring.GoScore > 100 {
		return fmt.Errorf("scores must lie in [0,100]")
	}
	if c.Scoring.ReviewScore > c.Scoring.GoScore {
		return fmt.Errorf("REVIEW_SCORE (%.1f) must not exceed GO_SCORE (%.1f)", c.Scoring.ReviewScore, c.Scoring.GoScore)
	}

	if c.Scan.EnrichParallelism < 1 {
		return fmt.Errorf("ENRICH_PARALLELISM must be >= 1")
	}
	if c.Scan.MaxAlertsPerCycle < 0 {
		return fmt.Errorf("MAX_ALERTS_PER_CYCLE must be >= 0")
	}
	if c.Scan.Interval < time.Second {
		return fmt.Errorf("SCAN_INTERVAL must be at least 1s")
	}

	if c.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if c.Fetcher.BackoffBase < 1 {
		return fmt.Errorf("BACKOFF_BASE must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key, sep string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
