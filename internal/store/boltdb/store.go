// Package boltdb provides the embedded single-file project store.
package boltdb

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/store/codec"
)

var (
	bucketProjects = []byte("projects")      // url -> encoded record
	bucketNames    = []byte("project_names") // lower(name) \x00 url -> nil
)

const nameSep = 0x00

// Store implements contracts.Store on a bbolt file
// ⭐ SSOT: default persistence (DB_PATH)
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store file at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", contracts.ErrStore, dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", contracts.ErrStore, path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketProjects, bucketNames} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init buckets: %v", contracts.ErrStore, err)
	}

	return &Store{db: db}, nil
}

func nameIndexKey(name, url string) []byte {
	key := make([]byte, 0, len(name)+1+len(url))
	key = append(key, name...)
	key = append(key, nameSep)
	return append(key, url...)
}

// Seen reports whether url has a record
func (s *Store) Seen(_ context.Context, url string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketProjects).Get([]byte(url)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: seen: %v", contracts.ErrStore, err)
	}
	return found, nil
}

// Upsert inserts or replaces the record for rec.URL in one transaction
func (s *Store) Upsert(ctx context.Context, rec *contracts.ProjectRecord) error {
	if err := codec.CheckUpsert(ctx, rec); err != nil {
		return err
	}
	data, err := codec.Encode(rec)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		names := tx.Bucket(bucketNames)

		if old := projects.Get([]byte(rec.URL)); old != nil {
			if prev, err := codec.Decode(old); err == nil {
				if key := codec.NameKey(prev.Name); key != "" {
					if err := names.Delete(nameIndexKey(key, rec.URL)); err != nil {
						return err
					}
				}
			}
		}

		if err := projects.Put([]byte(rec.URL), data); err != nil {
			return err
		}
		if key := codec.NameKey(rec.Name); key != "" {
			return names.Put(nameIndexKey(key, rec.URL), []byte{})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", contracts.ErrStore, rec.URL, err)
	}
	return nil
}

// GetAll returns every record ordered by first sighting, then url
func (s *Store) GetAll(_ context.Context) ([]contracts.ProjectRecord, error) {
	var out []contracts.ProjectRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProjects).ForEach(func(_, v []byte) error {
			rec, err := codec.Decode(v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get all: %v", contracts.ErrStore, err)
	}
	codec.SortRecords(out)
	return out, nil
}

// GetByName returns records whose name matches case-insensitively
func (s *Store) GetByName(_ context.Context, name string) ([]contracts.ProjectRecord, error) {
	key := codec.NameKey(name)
	if key == "" {
		return nil, nil
	}
	prefix := append([]byte(key), nameSep)

	var out []contracts.ProjectRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		c := tx.Bucket(bucketNames).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			data := projects.Get(k[len(prefix):])
			if data == nil {
				continue
			}
			rec, err := codec.Decode(data)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get by name: %v", contracts.ErrStore, err)
	}
	codec.SortRecords(out)
	return out, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.db.Path()
}

// Close releases the file lock
func (s *Store) Close() error {
	return s.db.Close()
}

var _ contracts.Store = (*Store)(nil)
