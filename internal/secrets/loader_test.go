package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	t.Setenv("CAREER_PILOT_TEST_KEY", "from-env")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "file wins", src: Source{File: file, Value: "inline", Env: "CAREER_PILOT_TEST_KEY"}, expect: "from-file"},
		{name: "value over env", src: Source{Value: " inline ", Env: "CAREER_PILOT_TEST_KEY"}, expect: "inline"},
		{name: "env", src: Source{Env: "CAREER_PILOT_TEST_KEY"}, expect: "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadNotConfigured(t *testing.T) {
	t.Setenv("CAREER_PILOT_MISSING_KEY", "")

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	for name, src := range map[string]Source{
		"nothing":    {Name: "serpapi key"},
		"empty env":  {Name: "serpapi key", Env: "CAREER_PILOT_MISSING_KEY"},
		"empty file": {Name: "serpapi key", File: empty},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(src)
			if !errors.Is(err, ErrNotConfigured) {
				t.Fatalf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(Source{Name: "gemini api key", File: filepath.Join(t.TempDir(), "absent")})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotConfigured) {
		t.Fatalf("unreadable file should not be reported as not configured: %v", err)
	}
}
