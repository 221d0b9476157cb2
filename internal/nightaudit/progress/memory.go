package progress

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
)

type memoryEntry struct {
	mu     sync.Mutex
	record domain.ProgressRecord
}

// MemoryStore keeps records in process memory. Completed records older than
// ttl are dropped when new runs are created; running records are never dropped.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (s *MemoryStore) Create(_ context.Context, seed domain.ProgressRecord) (domain.ProgressRecord, error) {
	record := seed.Clone()
	record.ID = ulid.Make().String()
	if record.StartedAt.IsZero() {
		record.StartedAt = s.now()
	}

	s.mu.Lock()
	s.pruneLocked()
	s.entries[record.ID] = &memoryEntry{record: record}
	s.mu.Unlock()

	return record.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.ProgressRecord, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.ProgressRecord{}, false, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record.Clone(), true, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, mutate func(*domain.ProgressRecord)) error {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrRunNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	record := entry.record.Clone()
	mutate(&record)
	record.ID = id
	entry.record = record
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, entry := range s.entries {
		entry.mu.Lock()
		finished := entry.record.FinishedAt
		expired := entry.record.IsCompleted && finished != nil && finished.Before(cutoff)
		entry.mu.Unlock()
		if expired {
			delete(s.entries, id)
		}
	}
}
