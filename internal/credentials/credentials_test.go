package credentials

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "docent", "api_key"))

	if _, err := s.Load(); !errors.Is(err, ErrNoKey) {
		t.Fatalf("Load() on empty store = %v, want ErrNoKey", err)
	}
	if err := s.Save("  AIza-test-key \n"); err != nil {
		t.Fatal(err)
	}

	key, err := s.Load()
	if err != nil || key != "AIza-test-key" {
		t.Errorf("Load() = %q, %v", key, err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("key file mode = %o, want 600", perm)
		}
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoKey) {
		t.Errorf("Load() after Clear() = %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() = %v", err)
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "api_key"))
	if err := s.Save("   "); err == nil {
		t.Error("Save() should reject a blank key")
	}
}

func TestResolve(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "api_key"))
	_ = s.Save("stored")

	if k, _ := s.Resolve("flag"); k != "flag" {
		t.Errorf("explicit key = %q", k)
	}

	t.Setenv("DOCENT_TEST_KEY", "from-env")
	if k, _ := s.Resolve("", "DOCENT_UNSET_KEY", "DOCENT_TEST_KEY"); k != "from-env" {
		t.Errorf("env key = %q", k)
	}
	if k, _ := s.Resolve("", "DOCENT_UNSET_KEY"); k != "stored" {
		t.Errorf("stored key = %q", k)
	}
}

func TestPromptFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.WriteString("sk-piped\n")
	w.Close()
	defer r.Close()

	key, err := Prompt(r, io.Discard, "API key: ")
	if err != nil || key != "sk-piped" {
		t.Errorf("Prompt() = %q, %v", key, err)
	}
}
