package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.SGX.OutputDir != "data" {
		t.Errorf("Expected OutputDir to be data, got %s", cfg.SGX.OutputDir)
	}

	if cfg.SGX.RetryAttempts != 3 {
		t.Errorf("Expected RetryAttempts to be 3, got %d", cfg.SGX.RetryAttempts)
	}

	if cfg.SGX.RetryDelay != 5*time.Second {
		t.Errorf("Expected RetryDelay to be 5s, got %v", cfg.SGX.RetryDelay)
	}

	if cfg.SGX.BackfillDays != 5 {
		t.Errorf("Expected BackfillDays to be 5, got %d", cfg.SGX.BackfillDays)
	}

	if cfg.SGX.WeekendPolicy != WeekendPolicyLast {
		t.Errorf("Expected WeekendPolicy to be last, got %s", cfg.SGX.WeekendPolicy)
	}

	if cfg.Anchor.BoltPath != filepath.Join("data", ".anchors.db") {
		t.Errorf("Expected BoltPath under output dir, got %s", cfg.Anchor.BoltPath)
	}

	if cfg.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SGX_OUTPUT_DIR", "/srv/sgx")
	t.Setenv("SGX_RETRY_ATTEMPTS", "5")
	t.Setenv("SGX_HOLIDAYS", "2026-01-01, 2026-02-17,,")
	t.Setenv("SGX_WORKERS", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.SGX.RetryAttempts != 5 {
		t.Errorf("Expected RetryAttempts to be 5, got %d", cfg.SGX.RetryAttempts)
	}

	if len(cfg.SGX.Holidays) != 2 || cfg.SGX.Holidays[1] != "2026-02-17" {
		t.Errorf("Expected two trimmed holidays, got %v", cfg.SGX.Holidays)
	}

	if cfg.SGX.Workers != 2 {
		t.Errorf("Expected Workers to be 2, got %d", cfg.SGX.Workers)
	}

	if cfg.Anchor.BoltPath != filepath.Join("/srv/sgx", ".anchors.db") {
		t.Errorf("Expected BoltPath to follow output dir, got %s", cfg.Anchor.BoltPath)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sgx.env")
	content := "SGX_BACKFILL_DAYS=9\nSGX_WEEKEND_POLICY=skip\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SGX_BACKFILL_DAYS")
		os.Unsetenv("SGX_WEEKEND_POLICY")
	})

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if cfg.SGX.BackfillDays != 9 {
		t.Errorf("Expected BackfillDays to be 9, got %d", cfg.SGX.BackfillDays)
	}

	if cfg.SGX.WeekendPolicy != WeekendPolicySkip {
		t.Errorf("Expected WeekendPolicy to be skip, got %s", cfg.SGX.WeekendPolicy)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Error("Expected error for a missing config file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid env", func(c *Config) { c.Env = "invalid" }},
		{"zero retries", func(c *Config) { c.SGX.RetryAttempts = 0 }},
		{"max delay below delay", func(c *Config) { c.SGX.RetryMaxDelay = time.Millisecond }},
		{"unknown weekend policy", func(c *Config) { c.SGX.WeekendPolicy = "never" }},
		{"bad holiday", func(c *Config) { c.SGX.Holidays = []string{"01/02/2026"} }},
		{"too many workers", func(c *Config) { c.SGX.Workers = MaxWorkers + 1 }},
		{"negative radius", func(c *Config) { c.SGX.ScanRadius = -1 }},
		{"unknown anchor store", func(c *Config) { c.Anchor.Store = "etcd" }},
		{"redis store without redis", func(c *Config) { c.Anchor.Store = AnchorStoreRedis }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}

			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}

func TestSetOutputDir(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	cfg.SetOutputDir("/mnt/archive")

	if cfg.SGX.OutputDir != "/mnt/archive" {
		t.Errorf("Expected OutputDir to be /mnt/archive, got %s", cfg.SGX.OutputDir)
	}
	if want := filepath.Join("/mnt/archive", ".anchors.db"); cfg.Anchor.BoltPath != want {
		t.Errorf("Expected BoltPath to follow the output dir (%s), got %s", want, cfg.Anchor.BoltPath)
	}
}

func TestSetOutputDirKeepsExplicitBoltPath(t *testing.T) {
	t.Setenv("ANCHOR_BOLT_PATH", "/var/lib/sgxsync/anchors.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	cfg.SetOutputDir("/mnt/archive")

	if cfg.Anchor.BoltPath != "/var/lib/sgxsync/anchors.db" {
		t.Errorf("Expected explicit BoltPath to stay, got %s", cfg.Anchor.BoltPath)
	}
}

func TestLoadKinds(t *testing.T) {
	t.Setenv("SGX_KINDS", "WEBPXTICK_DT, TC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.SGX.Kinds) != 2 || cfg.SGX.Kinds[0] != "WEBPXTICK_DT" || cfg.SGX.Kinds[1] != "TC" {
		t.Errorf("Expected Kinds [WEBPXTICK_DT TC], got %v", cfg.SGX.Kinds)
	}
}
