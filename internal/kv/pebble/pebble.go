package pebble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/v2"
)

// KVStore implements kv.Store with a PebbleDB directory.
type KVStore struct {
	db *pebble.DB
}

// Open opens (or creates) the Pebble database living directly at dir.
func Open(dir string) (*KVStore, error) {
	if dir == "" {
		return nil, errors.New("pebble: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pebble dir: %w", err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &KVStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	val, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get key %q: %w", key, err)
	}
	// val is only valid until closer is closed.
	out := string(val)
	_ = closer.Close()
	return out, true, nil
}

// Set stores value under key with a synced write.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("set key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key with a synced write.
func (s *KVStore) Remove(_ context.Context, key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *KVStore) Close() error {
	return s.db.Close()
}
