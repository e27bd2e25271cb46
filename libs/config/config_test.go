package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHelpersFallBack(t *testing.T) {
	t.Setenv("SB_TEST_INT", "abc")
	t.Setenv("SB_TEST_BOOL", "yes")

	if got := Int("SB_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if !Bool("SB_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	if got := SplitList(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestValidatePort(t *testing.T) {
	for _, bad := range []string{"", "abc", "0", "99999", "-1"} {
		if err := ValidatePort("PORT", bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if err := ValidatePort("PORT", "8080"); err != nil {
		t.Fatalf("expected 8080 to be valid, got %v", err)
	}
	if err := ValidateOptionalPort("GRPC_PORT", ""); err != nil {
		t.Fatalf("expected empty optional port to pass, got %v", err)
	}
	if err := ValidateOptionalPort("GRPC_PORT", "99999"); err == nil {
		t.Fatal("expected error for out of range grpc port")
	}
}

func TestProcessReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("SB_DOTENV_PORT=9123\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() { _ = os.Unsetenv("SB_DOTENV_PORT") })

	var cfg struct {
		Port string `envconfig:"SB_DOTENV_PORT" default:"8000"`
		Name string `envconfig:"SB_DOTENV_NAME" default:"salon"`
	}
	if err := Process(&cfg); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if cfg.Port != "9123" {
		t.Fatalf("expected port from env file, got %q", cfg.Port)
	}
	if cfg.Name != "salon" {
		t.Fatalf("expected default name, got %q", cfg.Name)
	}
}
