// Package store keeps uploaded datasets and their detection reports in
// memory. Entries are keyed by UUID, carry a content fingerprint, and are
// evicted by age and by count, so a long-lived service never grows without
// bound.
package store

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"claimsight/internal/dataset"
	"claimsight/internal/detectors"
	"claimsight/internal/errors"
)

// Entry is one stored dataset with its optional detection report. Report is
// nil until a detection run completes for the dataset.
type Entry struct {
	ID          string
	Fingerprint string
	Source      string
	Table       *dataset.Table
	Schema      *dataset.Schema
	Report      *detectors.Report
	StoredAt    time.Time
	DetectedAt  time.Time
}

// Store is a bounded in-memory dataset store. The zero value is not usable;
// construct with New.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	order    []string // insertion order, oldest first
	maxSize  int
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a store evicting beyond maxSize entries or past ttl. A zero
// ttl disables age-based eviction; maxSize must be positive.
func New(maxSize int, ttl time.Duration) *Store {
	s := &Store{
		entries:  make(map[string]*Entry),
		maxSize:  maxSize,
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweep()
	}
	return s
}

// Put stores a table under a fresh UUID and returns its entry. The source
// tag records how the dataset arrived ("upload", "generated").
func (s *Store) Put(table *dataset.Table, schema *dataset.Schema, source string) *Entry {
	entry := &Entry{
		ID:          uuid.NewString(),
		Fingerprint: Fingerprint(table),
		Source:      source,
		Table:       table,
		Schema:      schema,
		StoredAt:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.maxSize > 0 && len(s.order) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.entries[entry.ID] = entry
	s.order = append(s.order, entry.ID)
	return entry
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, errors.ErrDatasetMissing
	}
	return entry, nil
}

// Latest returns the most recently stored entry, the fallback when a caller
// omits the dataset id.
func (s *Store) Latest() (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, errors.ErrNoDatasets
	}
	return s.entries[s.order[len(s.order)-1]], nil
}

// Resolve returns the entry with the given id, or the latest entry when the
// id is empty.
func (s *Store) Resolve(id string) (*Entry, error) {
	if id == "" {
		return s.Latest()
	}
	return s.Get(id)
}

// AttachReport records a detection report on an existing entry.
func (s *Store) AttachReport(id string, report *detectors.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return errors.ErrDatasetMissing
	}
	entry.Report = report
	entry.DetectedAt = time.Now()
	return nil
}

// LatestReport returns the most recently detected entry that carries a
// report, or the given entry's report when id is non-empty.
func (s *Store) LatestReport(id string) (*Entry, error) {
	if id != "" {
		entry, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if entry.Report == nil {
			return nil, errors.ErrResultsMissing
		}
		return entry, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Entry
	for _, entry := range s.entries {
		if entry.Report == nil {
			continue
		}
		if latest == nil || entry.DetectedAt.After(latest.DetectedAt) {
			latest = entry
		}
	}
	if latest == nil {
		return nil, errors.ErrNoResults
	}
	return latest, nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the background sweeper.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Store) evictOldestLocked() {
	if len(s.order) == 0 {
		return
	}
	oldest := s.order[0]
	s.order = s.order[1:]
	delete(s.entries, oldest)
}

// sweep drops expired entries once a minute.
func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

func (s *Store) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		entry := s.entries[id]
		if now.Sub(entry.StoredAt) > s.ttl {
			delete(s.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Fingerprint hashes a table's full content so identical re-uploads are
// observable across distinct ids.
func Fingerprint(table *dataset.Table) string {
	h, _ := blake2b.New256(nil)
	for _, column := range table.Columns() {
		h.Write([]byte(column))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	for i := 0; i < table.NumRows(); i++ {
		h.Write([]byte(table.RowKey(i)))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
