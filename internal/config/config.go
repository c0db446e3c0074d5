package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var rolesYAML []byte

type Config struct {
	Platform PlatformConfig
	Database DatabaseConfig
	Web      WebConfig
	Roles    RolesConfig
}

type PlatformConfig struct {
	DatabaseDSN string // MariaDB DSN of the community platform (e.g., app:secret@tcp(mariadb:3306)/esports)
	UserTable   string // Platform user table name (defaults to "user", Doctrine's default)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Host          string // Host to bind to (default 0.0.0.0)
	Port          int    // Port to listen on (default 8080)
	SessionSecret string // Secret for signing session cookies
}

type RolesConfig struct {
	AdminRoles []string `yaml:"admin_roles"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var roles RolesConfig
	if err := yaml.Unmarshal(rolesYAML, &roles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded roles.yaml: " + err.Error())
	}

	return &Config{
		Platform: PlatformConfig{
			DatabaseDSN: os.Getenv("PLATFORM_DATABASE_DSN"),
			UserTable:   envString("PLATFORM_USER_TABLE", "user"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host:          envString("WEB_HOST", "0.0.0.0"),
			Port:          envInt("WEB_PORT", 8080),
			SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
		},
		Roles: roles,
	}
}
