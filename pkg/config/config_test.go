package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.FAQ.TopK != 3 {
		t.Errorf("FAQ.TopK = %d, want 3", cfg.FAQ.TopK)
	}
	if cfg.FAQ.RelevanceFloor != 0.05 {
		t.Errorf("FAQ.RelevanceFloor = %f, want 0.05", cfg.FAQ.RelevanceFloor)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("Auth.TokenTTL = %s, want 168h", cfg.Auth.TokenTTL)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
server:
  port: 9999
faq:
  docsDir: /srv/faq
  topK: 5
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.FAQ.DocsDir != "/srv/faq" {
		t.Errorf("FAQ.DocsDir = %q", cfg.FAQ.DocsDir)
	}
	if cfg.FAQ.TopK != 5 {
		t.Errorf("FAQ.TopK = %d, want 5", cfg.FAQ.TopK)
	}
	// Untouched sections keep their defaults.
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want default 5432", cfg.Postgres.Port)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VR_SERVER_PORT", "7070")
	t.Setenv("VR_POSTGRES_HOST", "db.internal")
	t.Setenv("VR_JWT_SECRET", "prod-secret")
	t.Setenv("VR_FAQ_DOCS_DIR", "/data/faq")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q", cfg.Postgres.Host)
	}
	if cfg.Auth.JWTSecret != "prod-secret" {
		t.Errorf("Auth.JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.FAQ.DocsDir != "/data/faq" {
		t.Errorf("FAQ.DocsDir = %q", cfg.FAQ.DocsDir)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "localhost", Port: 5432, Database: "vanrental",
		User: "app", Password: "pw", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=app password=pw dbname=vanrental sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
