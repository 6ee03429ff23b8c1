// Package storage persists per-user dashboard storage snapshots and saved
// views in an embedded badger database.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	storagePrefix = "storage/"
	viewPrefix    = "view/"

	// SharedOwner owns views visible to every user
	SharedOwner = "_shared"
)

// ErrInvalidJSON is returned when a value to be stored is not valid JSON
var ErrInvalidJSON = errors.New("value is not valid JSON")

// Store persists snapshots and views
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store under dir
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory storage: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func storageKey(user string) []byte {
	return []byte(storagePrefix + user)
}

func viewKey(owner, name string) []byte {
	return []byte(viewPrefix + owner + "/" + name)
}

// PutSnapshot replaces the user's storage snapshot
func (s *Store) PutSnapshot(ctx context.Context, user, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(value)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey(user), compact.Bytes())
	})
}

// Snapshot returns the user's storage snapshot indented with two spaces, or
// "" when the user has none
func (s *Store) Snapshot(ctx context.Context, user string) (string, error) {
	raw, err := s.get(ctx, storageKey(user))
	if err != nil || raw == nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return "", fmt.Errorf("corrupt snapshot for %s: %w", user, err)
	}
	return out.String(), nil
}

// DeleteSnapshot removes the user's storage snapshot
func (s *Store) DeleteSnapshot(ctx context.Context, user string) error {
	return s.delete(ctx, storageKey(user))
}

// PutView saves a view for owner. Use SharedOwner for views every user sees.
func (s *Store) PutView(ctx context.Context, owner, name string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return errors.New("view name is required")
	}
	if owner == "" {
		owner = SharedOwner
	}
	if !json.Valid(value) {
		return ErrInvalidJSON
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(viewKey(owner, name), value)
	})
}

// View looks up a view saved by user, then a shared one. It returns nil
// when neither exists.
func (s *Store) View(ctx context.Context, name, user string) (json.RawMessage, error) {
	if user != "" {
		raw, err := s.get(ctx, viewKey(user, name))
		if err != nil || raw != nil {
			return raw, err
		}
	}
	return s.get(ctx, viewKey(SharedOwner, name))
}

// DeleteView removes owner's view
func (s *Store) DeleteView(ctx context.Context, owner, name string) error {
	if owner == "" {
		owner = SharedOwner
	}
	return s.delete(ctx, viewKey(owner, name))
}

// ListViews returns the names of the views owner has saved, sorted
func (s *Store) ListViews(ctx context.Context, owner string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if owner == "" {
		owner = SharedOwner
	}
	prefix := []byte(viewPrefix + owner + "/")

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (s *Store) delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}
