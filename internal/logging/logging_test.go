package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected string
	}{
		{"debug level", LevelDebug, "debug"},
		{"info level", LevelInfo, "info"},
		{"warn level", LevelWarn, "warn"},
		{"error level", LevelError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.level) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.level))
			}
		})
	}
}

func TestLogFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   LogFormat
		expected string
	}{
		{"text format", FormatText, "text"},
		{"json format", FormatJSON, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.format) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.format))
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level %s, got %s", LevelInfo, cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format %s, got %s", FormatText, cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got '%s'", cfg.Output)
	}
	if cfg.AddSource {
		t.Error("Expected AddSource to be false by default")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr text logger", func(t *testing.T) {
		cfg := Config{
			Level:  LevelInfo,
			Format: FormatText,
			Output: "stderr",
		}

		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
		if logger.config.Level != LevelInfo {
			t.Errorf("Expected level %s, got %s", LevelInfo, logger.config.Level)
		}
	})

	t.Run("stdout json logger", func(t *testing.T) {
		cfg := Config{
			Level:  LevelError,
			Format: FormatJSON,
			Output: "stdout",
		}

		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
	})

	t.Run("file logger", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "test.log")

		cfg := Config{
			Level:  LevelDebug,
			Format: FormatText,
			Output: logFile,
		}

		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("Failed to create file logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}

		if _, err := os.Stat(logFile); os.IsNotExist(err) {
			t.Error("Log file should have been created")
		}
	})

	t.Run("invalid directory for file logger", func(t *testing.T) {
		cfg := Config{
			Level:  LevelInfo,
			Format: FormatText,
			Output: "/invalid/path/test.log",
		}

		_, err := New(cfg)
		if err == nil {
			t.Error("Expected error for invalid log file path")
		}
	})

	t.Run("unknown log level defaults to info", func(t *testing.T) {
		cfg := Config{
			Level:  LogLevel("unknown"),
			Format: FormatText,
			Output: "stderr",
		}

		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("Failed to create logger with unknown level: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
	})

	t.Run("with source information", func(t *testing.T) {
		cfg := Config{
			Level:     LevelInfo,
			Format:    FormatText,
			Output:    "stderr",
			AddSource: true,
		}

		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("Failed to create logger with source: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
	})
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("Default logger should not be nil")
	}
	if logger.config.Level != LevelInfo {
		t.Errorf("Default logger should have info level, got %s", logger.config.Level)
	}
}

func TestLoggerOutput(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "output.log")
	cfg := Config{
		Level:  LevelDebug,
		Format: FormatText,
		Output: tmpFile,
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	output := string(content)

	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(output, msg) {
			t.Errorf("Output should contain %q", msg)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "filtered.log")
	cfg := Config{
		Level:  LevelWarn,
		Format: FormatText,
		Output: tmpFile,
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debug("should be filtered")
	logger.Info("should also be filtered")
	logger.Warn("should appear")

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	output := string(content)

	if strings.Contains(output, "should be filtered") {
		t.Error("Debug message should be filtered at warn level")
	}
	if strings.Contains(output, "should also be filtered") {
		t.Error("Info message should be filtered at warn level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("Warn message should be logged at warn level")
	}
}

func TestJSONFormat(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "json.log")
	cfg := Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: tmpFile,
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("structured message", "target", "192.168.1.1", "open_ports", 3)

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entry map[string]interface{}
	line := strings.TrimSpace(string(bytes.Split(content, []byte("\n"))[0]))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("JSON log line should be valid JSON: %v", err)
	}
	if entry["msg"] != "structured message" {
		t.Errorf("Expected msg 'structured message', got %v", entry["msg"])
	}
	if entry["target"] != "192.168.1.1" {
		t.Errorf("Expected target '192.168.1.1', got %v", entry["target"])
	}
}

func TestLoggerWithMethods(t *testing.T) {
	logger := NewDefault()

	t.Run("WithContext", func(t *testing.T) {
		ctx := context.Background()
		contextLogger := logger.WithContext(ctx)
		if contextLogger == nil {
			t.Error("WithContext should return a logger")
		}
		if contextLogger == logger {
			t.Error("WithContext should return a new logger instance")
		}
	})

	t.Run("WithFields", func(t *testing.T) {
		fieldsLogger := logger.WithFields("key1", "value1", "key2", "value2")
		if fieldsLogger == nil {
			t.Error("WithFields should return a logger")
		}
		if fieldsLogger == logger {
			t.Error("WithFields should return a new logger instance")
		}
	})

	t.Run("WithComponent", func(t *testing.T) {
		componentLogger := logger.WithComponent("engine")
		if componentLogger == nil {
			t.Error("WithComponent should return a logger")
		}
		if componentLogger == logger {
			t.Error("WithComponent should return a new logger instance")
		}
	})

	t.Run("WithScanID", func(t *testing.T) {
		scanLogger := logger.WithScanID("scan-123")
		if scanLogger == nil {
			t.Error("WithScanID should return a logger")
		}
		if scanLogger == logger {
			t.Error("WithScanID should return a new logger instance")
		}
	})

	t.Run("WithTarget", func(t *testing.T) {
		targetLogger := logger.WithTarget("192.168.1.1")
		if targetLogger == nil {
			t.Error("WithTarget should return a logger")
		}
		if targetLogger == logger {
			t.Error("WithTarget should return a new logger instance")
		}
	})

	t.Run("WithPort", func(t *testing.T) {
		portLogger := logger.WithPort(443)
		if portLogger == nil {
			t.Error("WithPort should return a logger")
		}
		if portLogger == logger {
			t.Error("WithPort should return a new logger instance")
		}
	})

	t.Run("WithError", func(t *testing.T) {
		err := fmt.Errorf("test error")
		errorLogger := logger.WithError(err)
		if errorLogger == nil {
			t.Error("WithError should return a logger")
		}
		if errorLogger == logger {
			t.Error("WithError should return a new logger instance")
		}
	})
}

func TestSpecializedLoggingMethods(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "specialized.log")
	cfg := Config{
		Level:  LevelDebug,
		Format: FormatText,
		Output: tmpFile,
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	readLog := func(t *testing.T) string {
		t.Helper()
		content, err := os.ReadFile(tmpFile)
		if err != nil {
			t.Fatalf("Failed to read log file: %v", err)
		}
		return string(content)
	}

	t.Run("InfoScan", func(t *testing.T) {
		logger.InfoScan("scan started", "192.168.1.1", "ports", 18)
		output := readLog(t)
		if !strings.Contains(output, "scan started") {
			t.Error("Scan message should be logged")
		}
		if !strings.Contains(output, "192.168.1.1") {
			t.Error("Target should be logged")
		}
	})

	t.Run("ErrorScan", func(t *testing.T) {
		logger.ErrorScan("scan failed", "10.0.0.1", fmt.Errorf("boom"))
		output := readLog(t)
		if !strings.Contains(output, "scan failed") {
			t.Error("Scan error message should be logged")
		}
		if !strings.Contains(output, "boom") {
			t.Error("Error should be logged")
		}
	})

	t.Run("InfoReference", func(t *testing.T) {
		logger.InfoReference("reference scan completed", "10.0.0.1", "open_ports", 2)
		output := readLog(t)
		if !strings.Contains(output, "reference scan completed") {
			t.Error("Reference message should be logged")
		}
		if !strings.Contains(output, "component=reference") {
			t.Error("Reference component should be logged")
		}
	})

	t.Run("WarnReference", func(t *testing.T) {
		logger.WarnReference("reference unavailable", "10.0.0.1", fmt.Errorf("nmap not found"))
		output := readLog(t)
		if !strings.Contains(output, "reference unavailable") {
			t.Error("Reference warning should be logged")
		}
	})

	t.Run("InfoWatch", func(t *testing.T) {
		logger.InfoWatch("watch iteration finished", "iteration", 3)
		output := readLog(t)
		if !strings.Contains(output, "watch iteration finished") {
			t.Error("Watch message should be logged")
		}
		if !strings.Contains(output, "component=watch") {
			t.Error("Watch component should be logged")
		}
	})

	t.Run("ErrorWatch", func(t *testing.T) {
		logger.ErrorWatch("watch iteration failed", fmt.Errorf("aborted"))
		output := readLog(t)
		if !strings.Contains(output, "watch iteration failed") {
			t.Error("Watch error should be logged")
		}
	})

	t.Run("InfoStatus", func(t *testing.T) {
		logger.InfoStatus("status server started", "address", "127.0.0.1:8099")
		output := readLog(t)
		if !strings.Contains(output, "status server started") {
			t.Error("Status message should be logged")
		}
		if !strings.Contains(output, "component=status") {
			t.Error("Status component should be logged")
		}
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		logger.ErrorStatus("status server failed", fmt.Errorf("bind: address in use"))
		output := readLog(t)
		if !strings.Contains(output, "status server failed") {
			t.Error("Status error should be logged")
		}
	})
}

func TestGlobalLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	tmpFile := filepath.Join(t.TempDir(), "global.log")
	cfg := Config{
		Level:  LevelDebug,
		Format: FormatText,
		Output: tmpFile,
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	SetDefault(logger)

	if Default() != logger {
		t.Error("Default should return the logger set via SetDefault")
	}

	Debug("global debug")
	Info("global info")
	Warn("global warn")
	Error("global error")
	InfoScan("global scan", "10.1.1.1")
	ErrorScan("global scan error", "10.1.1.1", fmt.Errorf("failed"))
	InfoReference("global reference", "10.1.1.1")
	WarnReference("global reference warning", "10.1.1.1", fmt.Errorf("missing"))
	InfoWatch("global watch")
	ErrorWatch("global watch error", fmt.Errorf("failed"))
	InfoStatus("global status")
	ErrorStatus("global status error", fmt.Errorf("failed"))

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	output := string(content)

	for _, msg := range []string{
		"global debug", "global info", "global warn", "global error",
		"global scan", "global reference", "global watch", "global status",
	} {
		if !strings.Contains(output, msg) {
			t.Errorf("Global logger output should contain %q", msg)
		}
	}
}
