package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	body := `
app:
  db_path: /tmp/test.db
decision:
  high_score: 85
lists:
  sources:
    - name: openphish
      url: https://feed.example/urls.txt
      format: text
      risk: 80
  whitelist:
    - internal.corp.example
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q", cfg.App.DBPath)
	}
	if cfg.Decision.HighScore != 85 {
		t.Errorf("HighScore = %v, want 85 from file", cfg.Decision.HighScore)
	}

	// Unset keys keep their defaults
	if cfg.Decision.MediumScore != 60 {
		t.Errorf("MediumScore = %v, want default 60", cfg.Decision.MediumScore)
	}
	if cfg.Probes.Workers != 4 {
		t.Errorf("Workers = %v, want default 4", cfg.Probes.Workers)
	}

	if len(cfg.Lists.Sources) != 1 || cfg.Lists.Sources[0].Name != "openphish" {
		t.Errorf("sources = %+v", cfg.Lists.Sources)
	}
	if cfg.Lists.Sources[0].Risk != 80 {
		t.Errorf("source risk = %d, want 80", cfg.Lists.Sources[0].Risk)
	}
	if len(cfg.Lists.Whitelist) != 1 {
		t.Errorf("whitelist = %v", cfg.Lists.Whitelist)
	}
}

func TestLoad_MissingExplicitFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("app: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadSecrets_FromEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "k1")
	t.Setenv("GOOGLE_CSE_ID", "k2")
	t.Setenv("GOOGLE_SAFE_BROWSING_KEY", "k3")

	s := LoadSecrets()
	if s.GoogleAPIKey != "k1" || s.GoogleEngineID != "k2" || s.SafeBrowsingKey != "k3" {
		t.Errorf("secrets = %+v", s)
	}
}
