package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8000)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host default = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment default = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Storage.Address != "ws://localhost:8800/rpc" {
		t.Errorf("Storage.Address default = %q", cfg.Storage.Address)
	}
	if !cfg.Auth.DevMode {
		t.Error("Auth.DevMode should default to true")
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("STOCKDECK_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_PortEnvOverride_InvalidIgnored(t *testing.T) {
	t.Setenv("STOCKDECK_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want default 8000 for invalid env value", cfg.Server.Port)
	}
}

func TestConfig_StorageEnvOverrides(t *testing.T) {
	t.Setenv("STOCKDECK_STORAGE_ADDRESS", "ws://db.internal:9000/rpc")
	t.Setenv("STOCKDECK_STORAGE_NAMESPACE", "prod")
	t.Setenv("STOCKDECK_STORAGE_DATABASE", "api")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Storage.Address != "ws://db.internal:9000/rpc" {
		t.Errorf("Storage.Address = %q", cfg.Storage.Address)
	}
	if cfg.Storage.Namespace != "prod" {
		t.Errorf("Storage.Namespace = %q, want prod", cfg.Storage.Namespace)
	}
	if cfg.Storage.Database != "api" {
		t.Errorf("Storage.Database = %q, want api", cfg.Storage.Database)
	}
}

func TestConfig_AuthEnvOverrides(t *testing.T) {
	t.Setenv("STOCKDECK_AUTH_JWT_SECRET", "secret-from-env")
	t.Setenv("STOCKDECK_AUTH_TOKEN_EXPIRY", "1h")
	t.Setenv("STOCKDECK_AUTH_DEV_MODE", "false")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env")
	}
	if cfg.Auth.GetTokenExpiry() != time.Hour {
		t.Errorf("GetTokenExpiry() = %v, want 1h", cfg.Auth.GetTokenExpiry())
	}
	if cfg.Auth.DevMode {
		t.Error("Auth.DevMode should be false after env override")
	}
}

func TestConfig_CORSOriginsEnvOverride(t *testing.T) {
	t.Setenv("STOCKDECK_CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins len = %d, want 2", len(cfg.Server.CORSOrigins))
	}
	if cfg.Server.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSOrigins[1] = %q, whitespace should be trimmed", cfg.Server.CORSOrigins[1])
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockdeck.toml")
	content := `
environment = "test"

[server]
port = 9999

[auth]
jwt_secret = "file-secret"
dev_mode = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Environment != "test" {
		t.Errorf("Environment = %q, want test", cfg.Environment)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("Auth.JWTSecret = %q, want file-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.DevMode {
		t.Error("Auth.DevMode should be false from file")
	}
	// Fields absent from the file keep their defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/stockdeck.toml")
	if err != nil {
		t.Fatalf("LoadConfig() with missing file should not error: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want default 8000", cfg.Server.Port)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport ="), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() should error on malformed TOML")
	}
}

func TestYahooConfig_GetTimeout(t *testing.T) {
	cfg := &YahooConfig{Timeout: "5s"}
	if d := cfg.GetTimeout(); d != 5*time.Second {
		t.Errorf("GetTimeout() = %v, want 5s", d)
	}

	cfg = &YahooConfig{Timeout: "garbage"}
	if d := cfg.GetTimeout(); d != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s fallback", d)
	}
}

func TestCacheConfig_GetStockTTL(t *testing.T) {
	cfg := &CacheConfig{StockTTL: "300s"}
	if d := cfg.GetStockTTL(); d != 300*time.Second {
		t.Errorf("GetStockTTL() = %v, want 300s", d)
	}

	cfg = &CacheConfig{}
	if d := cfg.GetStockTTL(); d != 300*time.Second {
		t.Errorf("GetStockTTL() = %v, want 300s fallback for empty", d)
	}
}

func TestAuthConfig_GetTokenExpiry(t *testing.T) {
	cfg := &AuthConfig{TokenExpiry: "24h"}
	if d := cfg.GetTokenExpiry(); d != 24*time.Hour {
		t.Errorf("GetTokenExpiry() = %v, want 24h", d)
	}

	cfg = &AuthConfig{TokenExpiry: ""}
	if d := cfg.GetTokenExpiry(); d != 24*time.Hour {
		t.Errorf("GetTokenExpiry() = %v, want 24h fallback", d)
	}

	// Negative durations parse fine; expired-token tests rely on this.
	cfg = &AuthConfig{TokenExpiry: "-1h"}
	if d := cfg.GetTokenExpiry(); d != -time.Hour {
		t.Errorf("GetTokenExpiry() = %v, want -1h", d)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"Production", true},
		{" prod ", true},
		{"development", false},
		{"test", false},
		{"", false},
	}
	for _, tt := range tests {
		cfg := &Config{Environment: tt.env}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() with env %q = %v, want %v", tt.env, got, tt.want)
		}
	}
}
