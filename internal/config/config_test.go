package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photoscan/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Entities.MatchThreshold != 0.40 {
		t.Fatalf("unexpected default match threshold: %v", cfg.Entities.MatchThreshold)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, loaded, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded {
		t.Skip("user has a real config file; defaults not exercised")
	}
	if cfg.Vision.Model == "" {
		t.Fatal("expected default vision model")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
data_dir = "` + dir + `/data"
log_dir = "` + dir + `/logs"

[scanner]
extensions = ["JPG", ".PNG"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded {
		t.Fatal("expected config file to be read")
	}
	if resolved != path {
		t.Fatalf("resolved path mismatch: %s", resolved)
	}
	want := []string{".jpg", ".png"}
	if len(cfg.Scanner.Extensions) != len(want) {
		t.Fatalf("extensions = %v", cfg.Scanner.Extensions)
	}
	for i, ext := range want {
		if cfg.Scanner.Extensions[i] != ext {
			t.Fatalf("extensions = %v, want %v", cfg.Scanner.Extensions, want)
		}
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "photoscan.db") {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath())
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[entities]
match_threshold = 1.5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for out-of-range threshold")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
