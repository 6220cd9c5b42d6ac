package logger

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestRedactValue(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
		want  string
	}{
		{"email", "player@riftbattle.com", "p****r@riftbattle.com"},
		{"code", "123456", "[REDACTED]"},
		{"credentials", "user:pass", "[REDACTED]"},
		{"authorization", "abcdefghijkl", "abcd****"},
		{"device_code", "short", "short"},
		{"product_id", 42, "42"},
	}

	for _, tt := range tests {
		got := fmt.Sprintf("%v", redactValue(tt.key, tt.value))
		if got != tt.want {
			t.Errorf("redactValue(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}

	if got := redactValue("user_id", 7).(string); !strings.HasPrefix(got, "user_") {
		t.Errorf("Expected hashed user id, got %s", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN, false)

	l.Info("hidden")
	l.Warn("shown", "email", "player@riftbattle.com")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected INFO message to be filtered at WARN level")
	}
	if !strings.Contains(out, "[WARN] shown") {
		t.Errorf("Expected WARN message in output, got %q", out)
	}
	if strings.Contains(out, "player@riftbattle.com") {
		t.Error("Expected email to be redacted")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DEBUG {
		t.Error("Expected debug to parse as DEBUG")
	}
	if ParseLevel("nonsense") != INFO {
		t.Error("Expected unknown level to default to INFO")
	}
}
