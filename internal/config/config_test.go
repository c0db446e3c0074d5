package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PLATFORM_USER_TABLE")
	os.Unsetenv("WEB_HOST")
	os.Unsetenv("WEB_PORT")
	os.Unsetenv("DATABASE_MAX_OPEN_CONNS")

	cfg := Load()

	if cfg.Platform.UserTable != "user" {
		t.Errorf("expected default user table 'user', got '%s'", cfg.Platform.UserTable)
	}
	if cfg.Web.Host != "0.0.0.0" {
		t.Errorf("expected default host '0.0.0.0', got '%s'", cfg.Web.Host)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Web.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected default max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoad_EmbeddedRoles(t *testing.T) {
	cfg := Load()

	if len(cfg.Roles.AdminRoles) == 0 {
		t.Fatal("expected embedded roles.yaml to define admin roles")
	}

	found := false
	for _, r := range cfg.Roles.AdminRoles {
		if r == "ROLE_ADMIN" {
			found = true
		}
	}
	if !found {
		t.Error("expected ROLE_ADMIN to be part of the admin role set")
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"unset", "", 42},
		{"valid", "7", 7},
		{"invalid", "abc", 42},
		{"negative", "-3", 42},
		{"zero", "0", 42},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := "FACE_GATE_TEST_ENV_INT"
			if tc.value == "" {
				os.Unsetenv(key)
			} else {
				t.Setenv(key, tc.value)
			}
			if got := envInt(key, 42); got != tc.expected {
				t.Errorf("envInt(%q, 42) = %d; want %d", tc.value, got, tc.expected)
			}
		})
	}
}

func TestEnvString(t *testing.T) {
	key := "FACE_GATE_TEST_ENV_STRING"
	os.Unsetenv(key)
	if got := envString(key, "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got '%s'", got)
	}

	t.Setenv(key, "value")
	if got := envString(key, "fallback"); got != "value" {
		t.Errorf("expected value, got '%s'", got)
	}
}
