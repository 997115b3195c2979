package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-lesionform/internal/config"
)

func lookupFrom(values map[string]string) config.Option {
	return config.WithLookupEnv(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", lookupFrom(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Predict.Endpoint != "http://localhost:5000/predict" || cfg.Predict.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeFile(t, "lesionform.yaml", `
server:
  addr: ":9000"
predict:
  endpoint: "http://inference:5000/predict"
  timeout: 10s
ui:
  theme: lesionform
  variant: dark
`)

	cfg, err := config.Load(path, lookupFrom(map[string]string{
		"LESIONFORM_ENDPOINT": "http://override/predict",
		"LESIONFORM_TIMEOUT":  "2s",
		"LESIONFORM_TITLE":    "Triage",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("expected file addr, got %q", cfg.Server.Addr)
	}
	if cfg.Predict.Endpoint != "http://override/predict" || cfg.Predict.Timeout != 2*time.Second {
		t.Fatalf("env overrides not applied: %+v", cfg.Predict)
	}
	if cfg.UI.Variant != "dark" || cfg.UI.Title != "Triage" {
		t.Fatalf("unexpected ui config: %+v", cfg.UI)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "LESIONFORM_MOCK_ADDR"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set in the environment", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	envFile := writeFile(t, ".env", key+"=:5999\n")
	cfg, err := config.Load("", config.WithEnvFile(envFile))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mock.Addr != ":5999" {
		t.Fatalf("expected env file value, got %q", cfg.Mock.Addr)
	}

	if _, err := config.Load("", config.WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), lookupFrom(nil)); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), lookupFrom(nil)); err == nil {
		t.Fatalf("expected error for missing config file")
	}
	if _, err := config.Load(writeFile(t, "bad.yaml", "server: ["), lookupFrom(nil)); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
	if _, err := config.Load("", lookupFrom(map[string]string{"LESIONFORM_TIMEOUT": "soon"})); err == nil {
		t.Fatalf("expected error for bad duration")
	}
	empty := writeFile(t, "empty-endpoint.yaml", "predict:\n  endpoint: \"\"\n")
	if _, err := config.Load(empty, lookupFrom(nil)); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
