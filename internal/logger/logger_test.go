package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesLogFile(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Warn("expense not persisted", "id", "abc")
	Error("store unavailable")

	logFile := filepath.Join(configDir, "logs", "recur.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Errorf("log file was not created: %s", logFile)
	}
}

func TestInitDebugMode(t *testing.T) {
	if err := Init(Config{Debug: true, ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	Debug("planning", "count", 3)
	Info("planned")
	if l := With("component", "test"); l == nil {
		t.Error("With() returned nil after Init")
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	if With("k", "v") != nil {
		t.Error("With() should be nil without Init")
	}
}
