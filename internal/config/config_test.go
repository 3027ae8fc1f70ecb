package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  backend: "disk"
  data_dir: "/tmp/posters"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.Backend != BackendDisk {
		t.Errorf("backend = %q, want disk", cfg.Storage.Backend)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Search.DefaultLimit != 24 {
		t.Errorf("default limit: got %d, want 24", cfg.Search.DefaultLimit)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  backend: "sqlite"
  database_path: "./data/posters.db"
  asset_dir: "./data/assets"
classifier:
  artifact_dir: "./data/models"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "posters.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantModels := filepath.Join(dir, "data", "models")
	if cfg.Classifier.ArtifactDir != wantModels {
		t.Errorf("artifact_dir = %s, want %s", cfg.Classifier.ArtifactDir, wantModels)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("POYOU_PORT", "7070")
	t.Setenv("POSTER_REC_DIR", "/opt/models")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
classifier:
  artifact_dir: "/var/models"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env override should win over file", cfg.Server.Port)
	}
	if cfg.Classifier.ArtifactDir != "/opt/models" {
		t.Errorf("artifact_dir = %s, want /opt/models", cfg.Classifier.ArtifactDir)
	}
}

func TestLoad_rejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: \"redis\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("default backend: got %s", cfg.Storage.Backend)
	}
	if cfg.Search.MinSimilarity != 0.01 {
		t.Errorf("default min_similarity: got %f", cfg.Search.MinSimilarity)
	}
	if cfg.Search.SimilarLimit != 3 {
		t.Errorf("default similar_limit: got %d", cfg.Search.SimilarLimit)
	}
	if cfg.Watch.DebounceMS != 400 {
		t.Errorf("default debounce_ms: got %d", cfg.Watch.DebounceMS)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("POYOU_STORAGE_BACKEND", "disk")
	t.Setenv("POYOU_DATA_DIR", "/srv/posters")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Backend != BackendDisk || cfg.Storage.DataDir != "/srv/posters" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
}

func TestWatchConfig_EnabledOrDefault(t *testing.T) {
	w := &WatchConfig{}
	if !w.EnabledOrDefault() {
		t.Error("nil should default to true")
	}
	f := false
	w.Enabled = &f
	if w.EnabledOrDefault() {
		t.Error("explicit false should stick")
	}
}
