package util

import (
	"log/slog"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("BLUEPRINT_TEST_VAL", "set")
	if got := GetEnv("BLUEPRINT_TEST_VAL", "fallback"); got != "set" {
		t.Errorf("expected %q, got %q", "set", got)
	}
	if got := GetEnv("BLUEPRINT_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	t.Setenv("BLUEPRINT_TEST_BLANK", "   ")
	if got := GetEnv("BLUEPRINT_TEST_BLANK", "fallback"); got != "fallback" {
		t.Errorf("blank value should fall back, got %q", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"off", true, false},
		{"0", true, false},
		{"", true, true},
		{"garbage", true, true},
		{"garbage", false, false},
	}
	for _, c := range cases {
		t.Setenv("BLUEPRINT_TEST_BOOL", c.value)
		if got := ParseBoolEnv("BLUEPRINT_TEST_BOOL", c.def); got != c.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", c.value, c.def, got, c.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	if ParseLogLevel("debug") != slog.LevelDebug {
		t.Error("debug not mapped")
	}
	if ParseLogLevel("WARN") != slog.LevelWarn {
		t.Error("warn not mapped")
	}
	if ParseLogLevel("") != slog.LevelInfo {
		t.Error("default should be info")
	}
	if ParseLogLevel("nonsense") != slog.LevelInfo {
		t.Error("unknown should be info")
	}
}
