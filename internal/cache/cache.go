package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/charmbracelet/log"
)

// Config holds the sizes of both tiers.
type Config struct {
	MemoryCapacity   int64  // bytes
	DiskCapacity     int64  // bytes, 0 disables the disk tier
	DiskPath         string // directory for cache files
	CompressionLevel int    // zstd level
}

// DefaultConfig returns default cache configuration.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   32 * 1024 * 1024,
		DiskCapacity:     256 * 1024 * 1024,
		DiskPath:         dir,
		CompressionLevel: 3,
	}
}

// Cache checks memory first, then disk, and promotes disk hits.
type Cache struct {
	memory *MemoryCache
	disk   *DiskCache
	logger *log.Logger
}

// New creates a two-tier cache.
func New(cfg Config) (*Cache, error) {
	c := &Cache{
		memory: NewMemoryCache(cfg.MemoryCapacity),
		logger: log.WithPrefix("cache"),
	}
	if cfg.DiskCapacity > 0 && cfg.DiskPath != "" {
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		c.disk = disk
	}
	return c, nil
}

// Key derives a cache key from everything that changes synthesized audio.
func Key(text, model string, lengthScale float64, speaker int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.3f|%d", model, text, lengthScale, speaker)))
	return hex.EncodeToString(sum[:16])
}

// Get looks a key up in both tiers.
func (c *Cache) Get(key string) ([]byte, bool) {
	if data, ok := c.memory.Get(key); ok {
		return data, true
	}
	if c.disk == nil {
		return nil, false
	}
	data, ok := c.disk.Get(key)
	if ok {
		if err := c.memory.Put(key, data); err != nil {
			c.logger.Debug("Not promoting disk hit", "err", err)
		}
	}
	return data, ok
}

// Put stores a value in both tiers. A value too large for memory is still
// written to disk.
func (c *Cache) Put(key string, value []byte) error {
	memErr := c.memory.Put(key, value)
	if c.disk == nil {
		return memErr
	}
	if err := c.disk.Put(key, value); err != nil {
		return err
	}
	return nil
}

// Clear empties both tiers.
func (c *Cache) Clear() error {
	c.memory.Clear()
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}

// Stats returns memory and disk counters.
func (c *Cache) Stats() (memory, disk Stats) {
	memory = c.memory.Stats()
	if c.disk != nil {
		disk = c.disk.Stats()
	}
	return memory, disk
}

// Close releases the disk tier.
func (c *Cache) Close() error {
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}
