// Package watch narrates photos as they land in a folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"
)

// DefaultSettle is how long a file must go without writes before it is
// handed on.
const DefaultSettle = 300 * time.Millisecond

// ErrNoImages is returned by Latest when the folder has no images.
var ErrNoImages = errors.New("no images found")

var imageExtensions = []string{
	"*.jpg", "*.jpeg", "*.png", "*.webp", "*.heic",
	"*.JPG", "*.JPEG", "*.PNG", "*.WEBP", "*.HEIC",
}

// IsImage reports whether path names an image file that is not hidden.
func IsImage(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, pattern := range imageExtensions {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Watcher reports new images in a folder.
type Watcher struct {
	dir    string
	settle time.Duration
	logger *log.Logger
}

// New creates a watcher for dir.
func New(dir string) *Watcher {
	return &Watcher{dir: dir, settle: DefaultSettle, logger: log.WithPrefix("watch")}
}

// WithSettle changes the quiet period before a file is reported.
func (w *Watcher) WithSettle(d time.Duration) *Watcher {
	w.settle = d
	return w
}

// Run calls fn with the path of every image created in or moved into the
// folder, once writes to it have settled. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, fn func(path string)) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("Watching for photos", "dir", w.dir)

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		ready  = make(chan string, 16)
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-ready:
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			if _, err := os.Stat(path); err != nil {
				w.logger.Debug("Photo vanished before it settled", "file", path)
				continue
			}
			w.logger.Info("New photo", "file", path)
			fn(path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsImage(event.Name) {
				continue
			}
			w.logger.Debug("fsnotify event", "file", event.Name, "event", event.Op)

			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(w.settle)
			} else {
				timers[path] = time.AfterFunc(w.settle, func() {
					select {
					case ready <- path:
					case <-ctx.Done():
					}
				})
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Debug("fsnotify error", "dir", w.dir, "error", err)
		}
	}
}

// Latest returns the most recently modified image in dir or below it,
// honouring .gitignore files.
func Latest(dir string) (string, error) {
	ch, err := gitcha.FindFilesExcept(dir, imageExtensions, nil)
	if err != nil {
		return "", err
	}

	var (
		newest  string
		modtime time.Time
	)
	for res := range ch {
		if res.Info == nil || !IsImage(res.Path) {
			continue
		}
		if newest == "" || res.Info.ModTime().After(modtime) {
			newest, modtime = res.Path, res.Info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	return newest, nil
}
