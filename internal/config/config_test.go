package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Engine.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.MaxConcurrency != 4 {
		t.Errorf("max concurrency = %d, want 4", cfg.Engine.MaxConcurrency)
	}
	if cfg.Engine.TaskTimeout != 30*time.Second {
		t.Errorf("task timeout = %v, want 30s", cfg.Engine.TaskTimeout)
	}
	if cfg.Engine.SessionTimeout != 2*time.Minute {
		t.Errorf("session timeout = %v, want 2m", cfg.Engine.SessionTimeout)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache disabled by default")
	}
	if cfg.Anthropic.UseBedrock {
		t.Error("bedrock enabled by default")
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
anthropic:
  model: claude-3-5-haiku-20241022
  use_bedrock: true
  aws_region: ap-northeast-2
engine:
  max_retries: 5
  max_concurrency: 8
  task_timeout: 10s
  session_timeout: 1m
store:
  path: /tmp/danbi-test.db
templates:
  path: /etc/danbi/templates.yaml
  watch: true
cache:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Anthropic.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("model = %q", cfg.Anthropic.Model)
	}
	if !cfg.Anthropic.UseBedrock {
		t.Error("use_bedrock not read")
	}
	if cfg.Anthropic.AWSRegion != "ap-northeast-2" {
		t.Errorf("aws_region = %q", cfg.Anthropic.AWSRegion)
	}
	if cfg.Engine.MaxRetries != 5 {
		t.Errorf("max_retries = %d", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.TaskTimeout != 10*time.Second {
		t.Errorf("task_timeout = %v", cfg.Engine.TaskTimeout)
	}
	if cfg.Engine.SessionTimeout != time.Minute {
		t.Errorf("session_timeout = %v", cfg.Engine.SessionTimeout)
	}
	if cfg.Store.Path != "/tmp/danbi-test.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if !cfg.Templates.Watch {
		t.Error("templates.watch not read")
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled override not read")
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  max_retries: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Engine.MaxRetries != 1 {
		t.Errorf("max_retries = %d, want override 1", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.MaxConcurrency != 4 {
		t.Errorf("max_concurrency = %d, want default 4", cfg.Engine.MaxConcurrency)
	}
	if cfg.Engine.SessionTimeout != 2*time.Minute {
		t.Errorf("session_timeout = %v, want default 2m", cfg.Engine.SessionTimeout)
	}
}

func TestLoadFromPath_ExpandsAPIKeyEnv(t *testing.T) {
	t.Setenv("DANBI_TEST_KEY", "sk-ant-from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("anthropic:\n  api_key: ${DANBI_TEST_KEY}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("api_key = %q, want expanded env value", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_EnvOverridesUserConfig(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-wins")

	userDir := filepath.Join(configDir, "danbi")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "anthropic:\n  api_key: sk-ant-from-file\nengine:\n  max_retries: 7\n"
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-env-wins" {
		t.Errorf("api_key = %q, want env override", cfg.Anthropic.APIKey)
	}
	if cfg.Engine.MaxRetries != 7 {
		t.Errorf("max_retries = %d, want user config value 7", cfg.Engine.MaxRetries)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Anthropic.Model = "claude-3-5-haiku-20241022"
	cfg.Engine.MaxRetries = 3
	cfg.Templates.Path = "/opt/danbi/templates.yaml"

	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Anthropic.Model != cfg.Anthropic.Model {
		t.Errorf("model = %q", loaded.Anthropic.Model)
	}
	if loaded.Engine.MaxRetries != 3 {
		t.Errorf("max_retries = %d", loaded.Engine.MaxRetries)
	}
	if loaded.Templates.Path != cfg.Templates.Path {
		t.Errorf("templates path = %q", loaded.Templates.Path)
	}
}

func TestStorePath(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "/var/lib/danbi/sessions.db"
	if got := cfg.StorePath(); got != "/var/lib/danbi/sessions.db" {
		t.Errorf("store path = %q", got)
	}

	cfg.Store.Path = ""
	if got := cfg.StorePath(); got == "" {
		t.Error("empty default store path")
	}
}
