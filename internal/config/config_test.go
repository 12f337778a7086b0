package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint != DefaultEndpoint || cfg.Prefix != DefaultPrefix || cfg.OutputDir != "." {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if _, err := Load(path, true); err == nil {
		t.Error("expected error for missing required config")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
endpoint: https://mirror.example.com/dl
prefix: ""
output_dir: /tmp/videos
timeout: 45s
headers:
  X-Token: abc
s3:
  destination: s3://bucket/videos
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint != "https://mirror.example.com/dl" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Prefix != DefaultPrefix {
		t.Errorf("empty prefix should fall back to default, got %q", cfg.Prefix)
	}
	if cfg.OutputDir != "/tmp/videos" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Headers["X-Token"] != "abc" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.S3.Destination != "s3://bucket/videos" || cfg.S3.Profile != "default" {
		t.Errorf("S3 = %+v", cfg.S3)
	}
	if cfg.MetaEndpoint != DefaultMetaEndpoint {
		t.Errorf("MetaEndpoint = %q", cfg.MetaEndpoint)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("endpoint: [unclosed"), 0644)
	if _, err := Load(path, false); err == nil {
		t.Error("expected parse error")
	}
}
