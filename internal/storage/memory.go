// internal/storage/memory.go
package storage

import (
	"sync"

	"nilm-live/internal/data"
)

const defaultCapacity = 100 // Keep the last 100 finished sessions

// MemoryStore is a bounded log of finished streaming sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	buffer   []data.Session
	capacity int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{
		buffer:   make([]data.Session, 0, capacity),
		capacity: capacity,
	}
}

func (s *MemoryStore) Add(session data.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) >= s.capacity {
		// Drop the oldest record
		copy(s.buffer, s.buffer[1:])
		s.buffer = s.buffer[:len(s.buffer)-1]
	}
	s.buffer = append(s.buffer, session)
}

// GetRecent returns up to count records, newest last.
func (s *MemoryStore) GetRecent(count int) []data.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if count <= 0 || count > len(s.buffer) {
		count = len(s.buffer)
	}
	result := make([]data.Session, count)
	copy(result, s.buffer[len(s.buffer)-count:])
	return result
}

func (s *MemoryStore) GetAll() []data.Session {
	return s.GetRecent(0)
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buffer)
}
