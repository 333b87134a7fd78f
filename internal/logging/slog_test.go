package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSetup(t *testing.T) {
	logger := Setup(false)
	if logger == nil {
		t.Fatal("Setup returned nil")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("non-verbose logger should not enable debug level")
	}

	verbose := Setup(true)
	if !verbose.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("verbose logger should enable debug level")
	}
}

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name      string
		attr      slog.Attr
		wantKey   string
		wantValue string
	}{
		{"account", Account("work"), KeyAccount, "work"},
		{"label", Label("Newsletters"), KeyLabel, "Newsletters"},
		{"query", Query("from:billing"), KeyQuery, "from:billing"},
		{"count", Count(42), KeyCount, "42"},
		{"duration", Duration(1500 * time.Millisecond), KeyDuration, "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if got := tt.attr.Value.String(); got != tt.wantValue {
				t.Errorf("value = %q, want %q", got, tt.wantValue)
			}
		})
	}
}

func TestAttrsRender(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Debug("search completed", Account("work"), Query("newsletter"), Count(3))

	line := buf.String()
	for _, want := range []string{"account=work", "query=newsletter", "count=3"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("value = %q, want %q", attr.Value.String(), "boom")
	}
}

func TestErrNil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("done", Err(nil))

	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error should not appear in output, got %q", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	hash := AnonymizeEmail("jane@example.com")
	if !strings.HasPrefix(hash, "user-") {
		t.Errorf("hash %q should start with \"user-\"", hash)
	}
	if len(hash) != len("user-")+16 {
		t.Errorf("hash length = %d, want %d", len(hash), len("user-")+16)
	}

	if AnonymizeEmail("jane@example.com") != hash {
		t.Error("same address should hash to the same value")
	}
	if AnonymizeEmail("john@example.com") == hash {
		t.Error("different addresses should hash to different values")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("key = %q, want %q", attr.Key, KeyUserHash)
	}
	if attr.Value.String() != AnonymizeEmail("jane@example.com") {
		t.Errorf("value = %q, want the anonymized address", attr.Value.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(no token)"},
		{"abc123", "(6 char token)"},
		{"ya29.a0AfH6SMBx3y", "(17 char token)"},
	}

	for _, tt := range tests {
		if got := SanitizeToken(tt.token); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}
