// Package history keeps the prompts generated during one session.
//
// A Store is created per session and passed to every handler that needs it;
// it is append-only and lives only as long as the session.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DisplayLimit is the number of entries shown by the session view.
const DisplayLimit = 10

// Record is one finalized prompt. Records are never mutated after Append.
type Record struct {
	ID         string
	Text       string
	SourceName string
	ImageData  []byte
	CreatedAt  time.Time
}

// NewRecord builds a Record with a fresh ID and timestamp.
func NewRecord(text, sourceName string, imageData []byte) Record {
	return Record{
		ID:         uuid.NewString(),
		Text:       text,
		SourceName: sourceName,
		ImageData:  imageData,
		CreatedAt:  time.Now().UTC(),
	}
}

// Store is an ordered, append-only record list.
type Store struct {
	mu      sync.RWMutex
	records []Record
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// Append adds r to the end. Duplicates are kept.
func (s *Store) Append(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Len returns the total number of records, including those beyond the view.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RecentView returns up to n records, newest first.
func (s *Store) RecentView(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	if n > len(s.records) {
		n = len(s.records)
	}
	out := make([]Record, 0, n)
	for i := len(s.records) - 1; i >= len(s.records)-n; i-- {
		out = append(out, s.records[i])
	}
	return out
}

// Get looks up a record by ID.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
