// Package memory provides an in-process project store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/store/codec"
)

// Store implements contracts.Store in memory
// Records are held encoded so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte          // url -> encoded record
	names   map[string]map[string]bool // lower(name) -> urls
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		records: make(map[string][]byte),
		names:   make(map[string]map[string]bool),
	}
}

// Seen reports whether url has a record
func (s *Store) Seen(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[url]
	return ok, nil
}

// Upsert inserts or replaces the record for rec.URL
func (s *Store) Upsert(ctx context.Context, rec *contracts.ProjectRecord) error {
	if err := codec.CheckUpsert(ctx, rec); err != nil {
		return err
	}
	data, err := codec.Encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.records[rec.URL]; ok {
		if prev, err := codec.Decode(old); err == nil {
			s.unindex(codec.NameKey(prev.Name), rec.URL)
		}
	}

	s.records[rec.URL] = data
	if key := codec.NameKey(rec.Name); key != "" {
		if s.names[key] == nil {
			s.names[key] = make(map[string]bool)
		}
		s.names[key][rec.URL] = true
	}
	return nil
}

func (s *Store) unindex(key, url string) {
	urls := s.names[key]
	if urls == nil {
		return
	}
	delete(urls, url)
	if len(urls) == 0 {
		delete(s.names, key)
	}
}

// GetAll returns every record ordered by first sighting, then url
func (s *Store) GetAll(_ context.Context) ([]contracts.ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.ProjectRecord, 0, len(s.records))
	for _, data := range s.records {
		rec, err := codec.Decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	codec.SortRecords(out)
	return out, nil
}

// GetByName returns records whose name matches case-insensitively
func (s *Store) GetByName(_ context.Context, name string) ([]contracts.ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.names[codec.NameKey(name)]))
	for url := range s.names[codec.NameKey(name)] {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	out := make([]contracts.ProjectRecord, 0, len(urls))
	for _, url := range urls {
		rec, err := codec.Decode(s.records[url])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	codec.SortRecords(out)
	return out, nil
}

// Count returns the number of stored records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

var _ contracts.Store = (*Store)(nil)
