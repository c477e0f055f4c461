package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		for _, format := range []string{"json", "console"} {
			logger, err := New(tt.level, format)
			if err != nil {
				t.Fatalf("New(%q, %q): %v", tt.level, format, err)
			}
			if !logger.Core().Enabled(tt.want) {
				t.Errorf("New(%q, %q): level %s should be enabled", tt.level, format, tt.want)
			}
			if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
				t.Errorf("New(%q, %q): level %s should be disabled", tt.level, format, tt.want-1)
			}
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
