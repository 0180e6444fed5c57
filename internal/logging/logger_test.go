package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		wantPrefix string
	}{
		{name: "json format", format: "json", wantPrefix: "{"},
		{name: "text format", format: "text", wantPrefix: "time="},
		{name: "default is text", format: "", wantPrefix: "time="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, slog.LevelInfo, tt.format)
			if logger == nil || logger.Logger == nil {
				t.Fatal("expected non-nil logger")
			}

			logger.Info("hello")
			if !strings.HasPrefix(buf.String(), tt.wantPrefix) {
				t.Errorf("expected output to start with %q, got: %s", tt.wantPrefix, buf.String())
			}
		})
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "run-123")
	if got := RunIDFromContext(ctx); got != "run-123" {
		t.Errorf("RunIDFromContext() = %q, want %q", got, "run-123")
	}
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty run ID, got %q", got)
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	tests := []struct {
		name        string
		ctx         context.Context
		expectRunID bool
	}{
		{
			name:        "context with run ID",
			ctx:         ContextWithRunID(context.Background(), "test-run-123"),
			expectRunID: true,
		},
		{
			name:        "context without run ID",
			ctx:         context.Background(),
			expectRunID: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			logger.WithContext(tt.ctx).Info("test message")

			hasRunID := strings.Contains(buf.String(), `"run_id":"test-run-123"`)
			if hasRunID != tt.expectRunID {
				t.Errorf("run_id present = %v, want %v; output: %s", hasRunID, tt.expectRunID, buf.String())
			}
		})
	}
}

func TestLevelContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelDebug, "json")
	ctx := ContextWithRunID(context.Background(), "levels")

	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d: %s", len(lines), buf.String())
	}

	wantLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, line := range lines {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		if entry["level"] != wantLevels[i] {
			t.Errorf("line %d level = %v, want %s", i, entry["level"], wantLevels[i])
		}
		if entry["run_id"] != "levels" {
			t.Errorf("line %d missing run_id: %s", i, line)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	logger.With(DeviceID("dev-1"), PayloadCount(3)).Info("generated")

	output := buf.String()
	if !strings.Contains(output, `"device_id":"dev-1"`) {
		t.Errorf("expected device_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"payload_count":3`) {
		t.Errorf("expected payload_count in output, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	logger := NewWithWriter(&bytes.Buffer{}, slog.LevelInfo, "json")
	SetDefault(logger)

	if slog.Default() != logger.Logger {
		t.Error("SetDefault did not update slog.Default()")
	}
}

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		attr  slog.Attr
		key   string
		value string
	}{
		{DeviceID("abc"), FieldDeviceID, "abc"},
		{Session("s1"), FieldSession, "s1"},
		{PayloadCount(7), FieldPayloadCount, "7"},
		{BodyBytes(128), FieldBodyBytes, "128"},
		{Path("/tmp/x.pb"), FieldPath, "/tmp/x.pb"},
		{Error(errors.New("boom")), FieldError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value.String() != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, tt.attr.Value.String())
			}
		})
	}
}
