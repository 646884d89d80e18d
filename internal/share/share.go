// Package share publishes a list of archived item ids as a guidebook under
// a short opaque id.
package share

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
)

// MaxItems is the most ids a single guidebook may hold.
const MaxItems = 30

// IDLength is the length of a guidebook id.
const IDLength = 6

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var (
	// ErrNotFound is returned for unknown guidebook ids.
	ErrNotFound = errors.New("guidebook not found")

	// ErrEmpty is returned when sharing no items.
	ErrEmpty = errors.New("nothing to share")

	// ErrTooMany is returned when sharing more than MaxItems items.
	ErrTooMany = fmt.Errorf("at most %d items can be shared at once", MaxItems)
)

var keyPrefix = []byte("guidebook/")

// Guidebook is a shared list of archive ids.
type Guidebook struct {
	ContentIDs []int64   `json:"contentIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store keeps guidebooks in badger.
type Store struct {
	db     *badger.DB
	now    func() time.Time
	newID  func() (string, error)
	logger *log.Logger
}

// OpenStore opens a store in dir, or in memory when dir is empty.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := log.WithPrefix("share")
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening share store: %w", err)
	}
	return &Store{db: db, now: time.Now, newID: NewID, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Validate checks that ids can be shared.
func Validate(ids []int64) error {
	if len(ids) == 0 {
		return ErrEmpty
	}
	if len(ids) > MaxItems {
		return ErrTooMany
	}
	return nil
}

// Create stores ids as a new guidebook and returns its id.
func (s *Store) Create(ids []int64) (string, error) {
	if err := Validate(ids); err != nil {
		return "", err
	}
	value, err := json.Marshal(Guidebook{ContentIDs: ids, CreatedAt: s.now().UTC()})
	if err != nil {
		return "", err
	}

	for range 5 {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(key(id)); err == nil {
				return errTaken
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.Set(key(id), value)
		})
		if errors.Is(err, errTaken) {
			s.logger.Debug("Guidebook id taken, retrying", "id", id)
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
	return "", errors.New("could not allocate a guidebook id")
}

var errTaken = errors.New("id taken")

// Get returns the guidebook with id.
func (s *Store) Get(id string) (Guidebook, error) {
	var g Guidebook
	err := s.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return it.Value(func(v []byte) error {
			return json.Unmarshal(v, &g)
		})
	})
	return g, err
}

// NewID returns a random URL-safe id of IDLength characters.
func NewID() (string, error) {
	b := make([]byte, IDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}

func key(id string) []byte {
	return append(append([]byte{}, keyPrefix...), id...)
}
