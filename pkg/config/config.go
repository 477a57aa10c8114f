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

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// SGX download engine
	SGX SGXConfig

	// Anchor (ID reference point) storage
	Anchor AnchorConfig

	// Redis
	Redis RedisConfig

	// Scheduler
	Schedule ScheduleConfig

	// Status API
	APIEnabled bool
	Port       string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
	LogQuiet  bool
}

// SGXConfig holds the download engine settings
type SGXConfig struct {
	OutputDir string

	RetryAttempts int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
	Timeout       time.Duration

	BackfillDays         int
	BackfillIncludeToday bool
	WeekendPolicy        string   // last, skip
	Holidays             []string // YYYY-MM-DD, optional explicit calendar

	Kinds      []string // file kind codes to sync; empty means all
	Workers    int
	ScanRadius int
	VerifyZip  bool
	UseListing bool

	BaseURL   string
	PageURL   string
	RateLimit float64 // requests per second
}

// AnchorConfig holds ID reference point storage settings
type AnchorConfig struct {
	File     string // optional YAML seed file
	Store    string // bolt, redis, memory
	BoltPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ScheduleConfig holds cron expressions for the automatic jobs
type ScheduleConfig struct {
	Backfill string
}

const (
	WeekendPolicyLast = "last"
	WeekendPolicySkip = "skip"

	AnchorStoreBolt   = "bolt"
	AnchorStoreRedis  = "redis"
	AnchorStoreMemory = "memory"

	MaxWorkers = 4
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	return build()
}

// LoadFrom reads an explicit env file before building the configuration.
// Values already present in the environment win over the file.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		return Load()
	}

	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	return build()
}

func build() (*Config, error) {
	outputDir := getEnv("SGX_OUTPUT_DIR", "data")

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		SGX: SGXConfig{
			OutputDir:            outputDir,
			RetryAttempts:        getEnvAsInt("SGX_RETRY_ATTEMPTS", 3),
			RetryDelay:           getEnvAsDuration("SGX_RETRY_DELAY", "5s"),
			RetryMaxDelay:        getEnvAsDuration("SGX_RETRY_MAX_DELAY", "1m"),
			Timeout:              getEnvAsDuration("SGX_TIMEOUT", "60s"),
			BackfillDays:         getEnvAsInt("SGX_BACKFILL_DAYS", 5),
			BackfillIncludeToday: getEnvAsBool("SGX_BACKFILL_INCLUDE_TODAY", false),
			WeekendPolicy:        getEnv("SGX_WEEKEND_POLICY", WeekendPolicyLast),
			Holidays:             getEnvAsList("SGX_HOLIDAYS"),
			Kinds:                getEnvAsList("SGX_KINDS"),
			Workers:              getEnvAsInt("SGX_WORKERS", 1),
			ScanRadius:           getEnvAsInt("SGX_SCAN_RADIUS", 2),
			VerifyZip:            getEnvAsBool("SGX_VERIFY_ZIP", true),
			UseListing:           getEnvAsBool("SGX_USE_LISTING", true),
			BaseURL:              getEnv("SGX_BASE_URL", "https://links.sgx.com/1.0.0/derivatives-historical"),
			PageURL:              getEnv("SGX_PAGE_URL", "https://www.sgx.com/research-education/derivatives"),
			RateLimit:            getEnvAsFloat("SGX_RATE_LIMIT", 2),
		},

		Anchor: AnchorConfig{
			File:     getEnv("SGX_ANCHORS_FILE", ""),
			Store:    getEnv("ANCHOR_STORE", AnchorStoreBolt),
			BoltPath: getEnv("ANCHOR_BOLT_PATH", defaultBoltPath(outputDir)),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Schedule: ScheduleConfig{
			// 평일 19:30 (SGX 장 마감 후 게시)
			Backfill: getEnv("SCHEDULE_BACKFILL", "0 30 19 * * MON-FRI"),
		},

		APIEnabled: getEnvAsBool("API_ENABLED", false),
		Port:       getEnv("PORT", "8089"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", "downloader.log"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// SetOutputDir moves the output tree. A bolt path derived from the old
// directory follows it; an explicit ANCHOR_BOLT_PATH stays where it is.
func (c *Config) SetOutputDir(dir string) {
	if c.Anchor.BoltPath == defaultBoltPath(c.SGX.OutputDir) {
		c.Anchor.BoltPath = defaultBoltPath(dir)
	}
	c.SGX.OutputDir = dir
}

func defaultBoltPath(outputDir string) string {
	return filepath.Join(outputDir, ".anchors.db")
}

// Validate checks if configuration values are usable.
// CLI overrides are applied after Load, so callers re-run it.
func (c *Config) Validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.SGX.OutputDir == "" {
		return fmt.Errorf("SGX_OUTPUT_DIR is required")
	}

	if c.SGX.RetryAttempts < 1 {
		return fmt.Errorf("SGX_RETRY_ATTEMPTS must be at least 1, got %d", c.SGX.RetryAttempts)
	}

	if c.SGX.RetryDelay < 0 || c.SGX.RetryMaxDelay < c.SGX.RetryDelay {
		return fmt.Errorf("SGX_RETRY_MAX_DELAY (%s) must not be below SGX_RETRY_DELAY (%s)", c.SGX.RetryMaxDelay, c.SGX.RetryDelay)
	}

	if c.SGX.BackfillDays < 1 {
		return fmt.Errorf("SGX_BACKFILL_DAYS must be at least 1, got %d", c.SGX.BackfillDays)
	}

	if c.SGX.WeekendPolicy != WeekendPolicyLast && c.SGX.WeekendPolicy != WeekendPolicySkip {
		return fmt.Errorf("SGX_WEEKEND_POLICY must be one of: last, skip")
	}

	for _, h := range c.SGX.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("SGX_HOLIDAYS: invalid date %q (use YYYY-MM-DD)", h)
		}
	}

	if c.SGX.Workers < 1 || c.SGX.Workers > MaxWorkers {
		return fmt.Errorf("SGX_WORKERS must be between 1 and %d, got %d", MaxWorkers, c.SGX.Workers)
	}

	if c.SGX.ScanRadius < 0 {
		return fmt.Errorf("SGX_SCAN_RADIUS must not be negative")
	}

	if c.SGX.RateLimit <= 0 {
		return fmt.Errorf("SGX_RATE_LIMIT must be positive")
	}

	switch c.Anchor.Store {
	case AnchorStoreBolt, AnchorStoreMemory:
	case AnchorStoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("ANCHOR_STORE=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("ANCHOR_STORE must be one of: bolt, redis, memory")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
