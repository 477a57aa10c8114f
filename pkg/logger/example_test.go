package logger_test

import (
	"errors"

	"github.com/wonny/sgxsync/pkg/config"
	"github.com/wonny/sgxsync/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)
	defer log.Close()

	// One logger per download target
	targetLog := log.WithFields(map[string]interface{}{
		"date": "2026-01-30",
		"kind": "WEBPXTICK_DT",
	})
	targetLog.Info("download attempted")

	err := errors.New("context deadline exceeded")
	targetLog.WithError(err).WithField("attempt", 2).Warn("retry scheduled")
}
