// Package archive keeps narrated photos and their descriptions in a local
// badger database, bounded by a total size quota.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxSize is the default storage quota.
const DefaultMaxSize = 50 * 1024 * 1024

var (
	// ErrQuotaExceeded is returned when saving would exceed the quota.
	// Nothing is written in that case.
	ErrQuotaExceeded = errors.New("archive quota exceeded")

	// ErrNotFound is returned for unknown ids.
	ErrNotFound = errors.New("archive item not found")

	// ErrEmptyDescription is returned when saving an item without text.
	ErrEmptyDescription = errors.New("archive item has no description")
)

var (
	itemPrefix = []byte("item/")
	sizeKey    = []byte("meta/size")
)

// Item is one saved narration.
type Item struct {
	ID          int64     `json:"id"` // unix milliseconds at save time
	ImageData   []byte    `json:"imageData,omitempty"`
	MIMEType    string    `json:"mimeType,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Options configures an archive.
type Options struct {
	Dir      string // database directory; ignored when InMemory
	InMemory bool
	MaxSize  int64 // stored bytes; 0 means DefaultMaxSize
}

// Archive is a badger-backed item store.
type Archive struct {
	db      *badger.DB
	maxSize int64
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	now     func() time.Time
	logger  *log.Logger
}

// Open opens or creates an archive.
func Open(opts Options) (*Archive, error) {
	logger := log.WithPrefix("archive")

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(badgerLogger{logger})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Archive{
		db:      db,
		maxSize: maxSize,
		encoder: encoder,
		decoder: decoder,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	a.decoder.Close()
	_ = a.encoder.Close()
	return a.db.Close()
}

// MaxSize returns the quota in bytes.
func (a *Archive) MaxSize() int64 { return a.maxSize }

// Save stores item under a new id and returns it with ID and CreatedAt
// set. Saving fails with ErrQuotaExceeded if the archive would grow past
// its quota.
func (a *Archive) Save(item Item) (Item, error) {
	if strings.TrimSpace(item.Description) == "" {
		return Item{}, ErrEmptyDescription
	}

	now := a.now()
	item.CreatedAt = now
	item.ID = now.UnixMilli()

	err := a.db.Update(func(txn *badger.Txn) error {
		// ids are timestamps; step past any taken in the same millisecond
		for {
			_, err := txn.Get(itemKey(item.ID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				break
			}
			if err != nil {
				return err
			}
			item.ID++
		}

		value, err := a.encode(item)
		if err != nil {
			return err
		}
		size, err := readSize(txn)
		if err != nil {
			return err
		}
		if size+int64(len(value)) > a.maxSize {
			return ErrQuotaExceeded
		}

		if err := txn.Set(itemKey(item.ID), value); err != nil {
			return err
		}
		return writeSize(txn, size+int64(len(value)))
	})
	if err != nil {
		return Item{}, err
	}

	a.logger.Debug("Saved", "id", item.ID, "bytes", len(item.ImageData))
	return item, nil
}

// Get returns the item with id.
func (a *Archive) Get(id int64) (Item, error) {
	var item Item
	err := a.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(itemKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		value, err := it.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = a.decode(value)
		return err
	})
	return item, err
}

// List returns every item, newest first.
func (a *Archive) List() ([]Item, error) {
	var items []Item
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = itemPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// reverse iteration starts after the last possible key
		seek := append(append([]byte{}, itemPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(itemPrefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := a.decode(value)
			if err != nil {
				a.logger.Warn("Skipping unreadable item", "key", string(it.Item().Key()), "err", err)
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Delete removes the items with ids in one transaction and returns how
// many existed.
func (a *Archive) Delete(ids ...int64) (int, error) {
	deleted := 0
	err := a.db.Update(func(txn *badger.Txn) error {
		size, err := readSize(txn)
		if err != nil {
			return err
		}
		for _, id := range ids {
			it, err := txn.Get(itemKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			size -= it.ValueSize()
			if err := txn.Delete(itemKey(id)); err != nil {
				return err
			}
			deleted++
		}
		return writeSize(txn, max(size, 0))
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Size returns the stored bytes counted against the quota.
func (a *Archive) Size() (int64, error) {
	var size int64
	err := a.db.View(func(txn *badger.Txn) error {
		var err error
		size, err = readSize(txn)
		return err
	})
	return size, err
}

func (a *Archive) encode(item Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	return a.encoder.EncodeAll(data, nil), nil
}

func (a *Archive) decode(value []byte) (Item, error) {
	var item Item
	data, err := a.decoder.DecodeAll(value, nil)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal(data, &item)
	return item, err
}

func itemKey(id int64) []byte {
	key := make([]byte, len(itemPrefix)+8)
	copy(key, itemPrefix)
	binary.BigEndian.PutUint64(key[len(itemPrefix):], uint64(id))
	return key
}

func readSize(txn *badger.Txn) (int64, error) {
	it, err := txn.Get(sizeKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var size int64
	err = it.Value(func(v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("corrupt size record")
		}
		size = int64(binary.BigEndian.Uint64(v))
		return nil
	})
	return size, err
}

func writeSize(txn *badger.Txn, size int64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(size))
	return txn.Set(sizeKey, v)
}

// badgerLogger routes badger's logs through charmbracelet/log. Badger is
// chatty at info level, so only warnings and errors are kept.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Errorf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warnf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Infof(string, ...interface{})        {}
func (b badgerLogger) Debugf(string, ...interface{})       {}
