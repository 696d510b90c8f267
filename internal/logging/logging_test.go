package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		verbose bool
		want    zapcore.Level
	}{
		{"", "json", false, zapcore.InfoLevel},
		{"warn", "json", false, zapcore.WarnLevel},
		{"error", "console", false, zapcore.ErrorLevel},
		{"error", "json", true, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		logger, err := New(tt.level, tt.format, tt.verbose)
		if err != nil {
			t.Fatalf("New(%q, %q, %v): %v", tt.level, tt.format, tt.verbose, err)
		}
		if got := logger.Level(); got != tt.want {
			t.Errorf("New(%q, %q, %v) level = %v, want %v", tt.level, tt.format, tt.verbose, got, tt.want)
		}
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("chatty", "json", false); err == nil {
		t.Error("expected error for unknown level")
	}
}
