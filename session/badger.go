package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// keySep separates the session ID from the state key inside a Badger key.
// Session IDs are opaque but never contain a NUL byte.
const keySep = "\x00"

// BadgerBackend is a durable Backend over an embedded Badger database.
// Values are stored as JSON.
type BadgerBackend struct {
	db *badger.DB
}

var _ Backend = (*BadgerBackend)(nil)

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerBackend{db: db}, nil
}

// NewBadgerBackend wraps an already opened database. The caller keeps
// ownership of the database lifecycle.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// Close releases the underlying database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// Load implements Backend.
func (b *BadgerBackend) Load(sessionID string) (map[string]any, error) {
	prefix := []byte(sessionID + keySep)
	state := make(map[string]any)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(bytes.TrimPrefix(item.Key(), prefix))
			if err := item.Value(func(val []byte) error {
				var value any
				if err := json.Unmarshal(val, &value); err != nil {
					return fmt.Errorf("decode %s/%s: %w", sessionID, key, err)
				}
				state[key] = value
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Get implements Backend.
func (b *BadgerBackend) Get(sessionID, key string) (any, bool, error) {
	var value any
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey(sessionID, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Put implements Backend.
func (b *BadgerBackend) Put(sessionID, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", sessionID, key, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey(sessionID, key), encoded)
	})
}

// Clear implements Backend.
func (b *BadgerBackend) Clear(sessionID string) error {
	prefix := []byte(sessionID + keySep)
	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func storageKey(sessionID, key string) []byte {
	return []byte(sessionID + keySep + key)
}
