package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wonny/sgxsync/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name: "debug level",
			cfg: &config.Config{
				Env:       "development",
				LogLevel:  "debug",
				LogFormat: "json",
			},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name: "info level",
			cfg: &config.Config{
				Env:       "production",
				LogLevel:  "info",
				LogFormat: "json",
			},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name: "warn level",
			cfg: &config.Config{
				Env:       "staging",
				LogLevel:  "warn",
				LogFormat: "json",
			},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name: "file sink lowers global level",
			cfg: &config.Config{
				Env:       "production",
				LogLevel:  "error",
				LogFormat: "json",
				LogFile:   filepath.Join(t.TempDir(), "logs", "downloader.log"),
			},
			wantLevel: zerolog.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}
			defer logger.Close()

			// Verify global level is set
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFileSinkKeepsDebugWhenQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloader.log")
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "warn",
		LogFormat: "json",
		LogFile:   path,
		LogQuiet:  true,
	}

	logger := New(cfg)
	logger.Debug("retry scheduled")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	if !strings.Contains(string(data), "retry scheduled") {
		t.Errorf("Expected debug event in log file, got: %s", data)
	}
}

func TestLevelWriterFilters(t *testing.T) {
	var buf bytes.Buffer
	lw := levelWriter{w: &buf, min: zerolog.WarnLevel}

	if _, err := lw.WriteLevel(zerolog.InfoLevel, []byte("info\n")); err != nil {
		t.Fatalf("WriteLevel failed: %v", err)
	}
	if _, err := lw.WriteLevel(zerolog.ErrorLevel, []byte("error\n")); err != nil {
		t.Fatalf("WriteLevel failed: %v", err)
	}

	if buf.String() != "error\n" {
		t.Errorf("Expected only the error line, got %q", buf.String())
	}
}

func TestLoggerMethods(t *testing.T) {
	// Capture log output
	var buf bytes.Buffer

	// Set global level to debug to capture all logs
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	logger := NewWithWriter(&buf, "debug")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{
			name:      "debug",
			logFunc:   func() { logger.Debug("debug message") },
			wantMsg:   "debug message",
			wantLevel: "debug",
		},
		{
			name:      "info",
			logFunc:   func() { logger.Info("info message") },
			wantMsg:   "info message",
			wantLevel: "info",
		},
		{
			name:      "warnf",
			logFunc:   func() { logger.Warnf("retry attempt: %d", 3) },
			wantMsg:   "retry attempt: 3",
			wantLevel: "warn",
		},
		{
			name:      "errorf",
			logFunc:   func() { logger.Errorf("failed to connect: %s", "timeout") },
			wantMsg:   "failed to connect: timeout",
			wantLevel: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse log output: %v", err)
			}

			if logEntry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, logEntry["level"])
			}

			if logEntry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, logEntry["message"])
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	logger := NewWithWriter(&buf, "debug")

	enrichedLogger := logger.WithField("date", "2026-01-30").WithFields(map[string]interface{}{
		"kind":    "TC",
		"attempt": 2,
	})
	enrichedLogger.Info("download attempted")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}

	if logEntry["date"] != "2026-01-30" {
		t.Errorf("Expected date to be 2026-01-30, got %v", logEntry["date"])
	}

	if logEntry["kind"] != "TC" {
		t.Errorf("Expected kind to be TC, got %v", logEntry["kind"])
	}

	if logEntry["attempt"] != float64(2) {
		t.Errorf("Expected attempt to be 2, got %v", logEntry["attempt"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := NewWithWriter(&buf, "debug")

	testErr := errors.New("connection reset")
	logger.WithError(testErr).Error("download failed")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}

	if logEntry["error"] != "connection reset" {
		t.Errorf("Expected error to be 'connection reset', got %v", logEntry["error"])
	}
}

func TestLogFormats(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json format", "json"},
		{"console format", "console"},
		{"pretty format", "pretty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Temporarily redirect stdout
			oldStdout := os.Stdout
			r, w, _ := os.Pipe()
			os.Stdout = w

			cfg := &config.Config{
				Env:       "development",
				LogLevel:  "info",
				LogFormat: tt.format,
			}

			logger := New(cfg)
			logger.Info("test message")

			// Restore stdout
			w.Close()
			os.Stdout = oldStdout

			// Read captured output
			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)
			output := buf.String()

			if !strings.Contains(output, "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", output)
			}
		})
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.WithField("k", "v").Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Expected nil from Close, got %v", err)
	}
}
