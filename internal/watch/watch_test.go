package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"IMG_0001.jpg":       true,
		"/a/b/photo.JPEG":    true,
		"scan.png":           true,
		"pic.webp":           true,
		"iphone.HEIC":        true,
		"notes.txt":          false,
		".hidden.jpg":        false,
		"photo.jpg.download": false,
	}
	for path, want := range tests {
		if got := IsImage(path); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-time.Hour)

	write := func(name string, mod time.Time) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, mod, mod); err != nil {
			t.Fatal(err)
		}
		return p
	}

	if _, err := Latest(dir); !errors.Is(err, ErrNoImages) {
		t.Errorf("Latest(empty) = %v, want ErrNoImages", err)
	}

	write("a.jpg", old)
	want := write("b.png", old.Add(time.Minute))
	write("c.txt", time.Now())

	got, err := Latest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != filepath.Base(want) {
		t.Errorf("Latest() = %q, want %q", got, want)
	}
}

func TestRunReportsNewImages(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- New(dir).WithSettle(20*time.Millisecond).Run(ctx, func(p string) { found <- p })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	photo := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(photo, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-found:
		if filepath.Base(got) != "photo.jpg" {
			t.Errorf("reported %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("new photo was not reported")
	}

	select {
	case extra := <-found:
		t.Errorf("unexpected second report %q", extra)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func TestRunRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := New(f).Run(context.Background(), func(string) {}); err == nil {
		t.Error("Run() on a file should fail")
	}
}
