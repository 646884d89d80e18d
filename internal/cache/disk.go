package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const diskExt = ".pcm.zst"

// DiskCache stores compressed values as files named by the hash of their
// key. The oldest files are removed when the directory outgrows capacity.
type DiskCache struct {
	mu       sync.Mutex
	basePath string
	capacity int64
	size     int64
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	stats    Stats
}

// NewDiskCache opens or creates a disk cache at basePath.
func NewDiskCache(basePath string, capacity int64, level int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
	}
	for _, f := range dc.files() {
		dc.size += f.size
	}
	return dc, nil
}

// Get reads and decompresses a value. Unreadable files are removed.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	path := dc.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		dc.stats.Misses++
		return nil, false
	}
	value, err := dc.decoder.DecodeAll(data, nil)
	if err != nil {
		dc.size -= int64(len(data))
		_ = os.Remove(path)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	_ = os.Chtimes(path, now, now)
	dc.stats.Hits++
	return value, true
}

// Put compresses and writes a value.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := dc.encoder.EncodeAll(value, nil)
	n := int64(len(data))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	path := dc.path(key)
	if info, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err == nil {
			dc.size -= info.Size()
		}
	}
	if dc.size+n > dc.capacity {
		dc.evict(dc.size + n - dc.capacity)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	dc.size += n
	return nil
}

// Clear removes every cached file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	for _, f := range dc.files() {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	dc.size = 0
	return nil
}

// Stats returns a snapshot of the counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	s := dc.stats
	s.Capacity = dc.capacity
	s.Size = dc.size
	s.Items = len(dc.files())
	return s
}

// Close releases the codec.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

type diskFile struct {
	path    string
	size    int64
	modTime time.Time
}

func (dc *DiskCache) files() []diskFile {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return nil
	}
	var files []diskFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), diskExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, diskFile{
			path:    filepath.Join(dc.basePath, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files
}

// evict removes the least recently used files until need bytes are freed.
func (dc *DiskCache) evict(need int64) {
	files := dc.files()
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	for _, f := range files {
		if need <= 0 {
			return
		}
		if err := os.Remove(f.path); err != nil {
			continue
		}
		dc.size -= f.size
		need -= f.size
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dc.basePath, hex.EncodeToString(sum[:])+diskExt)
}
