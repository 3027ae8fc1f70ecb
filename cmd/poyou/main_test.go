package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"empty string", "", nil},
		{"single value", "AI", []string{"AI"}},
		{"multiple values", "AI,Contest", []string{"AI", "Contest"}},
		{"whitespace trimmed", " AI , Contest ", []string{"AI", "Contest"}},
		{"empty parts dropped", "AI,,Contest,", []string{"AI", "Contest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitCSV(tt.raw)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitCSV(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_CwdFallback(t *testing.T) {
	dir := t.TempDir()
	content := "storage:\n  backend: \"disk\"\n  data_dir: \"/tmp/posters\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Backend != "disk" {
		t.Errorf("backend = %q, want disk", cfg.Storage.Backend)
	}
	want := filepath.Join(cwd, "config.yaml")
	if resolved != want {
		t.Errorf("resolved path = %q, want %q", resolved, want)
	}
}

func TestLoadConfig_EnvWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	t.Setenv("POYOU_PORT", "9999")
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty for env-only config", resolved)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999 from environment", cfg.Server.Port)
	}
}
