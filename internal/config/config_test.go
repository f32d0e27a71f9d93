package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOCDIALOG_MAX_FACTS", "")
	t.Setenv("DOCDIALOG_CONVERSATIONS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxFacts != 50 {
		t.Fatalf("expected max_facts=50, got %d", cfg.MaxFacts)
	}
	if cfg.Conversations != 10 {
		t.Fatalf("expected conversations=10, got %d", cfg.Conversations)
	}
	if cfg.ColumnGapThreshold != 100 {
		t.Fatalf("expected column gap 100, got %g", cfg.ColumnGapThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docdialog.yaml")
	body := "max_facts: 20\nconversations: 3\ndb_path: kb.db\njob_ttl: 30m\nseed: 7\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCDIALOG_MAX_FACTS", "")
	t.Setenv("DOCDIALOG_DB", "")
	t.Setenv("DOCDIALOG_CONVERSATIONS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxFacts != 20 {
		t.Fatalf("expected max_facts from file, got %d", cfg.MaxFacts)
	}
	if cfg.Conversations != 5 {
		t.Fatalf("expected env to override file, got %d", cfg.Conversations)
	}
	if cfg.DBPath != "kb.db" {
		t.Fatalf("expected db path kb.db, got %q", cfg.DBPath)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Fatalf("expected job ttl 30m, got %s", cfg.JobTTL)
	}
	if cfg.Seed != 7 {
		t.Fatalf("expected seed 7, got %d", cfg.Seed)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"zero max facts", func(c *Config) { c.MaxFacts = 0 }, "max_facts"},
		{"negative conversations", func(c *Config) { c.Conversations = -1 }, "conversations"},
		{"zero conversations ok", func(c *Config) { c.Conversations = 0 }, ""},
		{"zero column gap", func(c *Config) { c.ColumnGapThreshold = 0 }, "column_gap_threshold"},
		{"empty db", func(c *Config) { c.DBPath = "" }, "db_path"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateServe_RequiresAPIKey(t *testing.T) {
	cfg := Defaults()
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected error without api key")
	}
	cfg.APIKey = "secret"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
