package store

import (
	"sync"
	"time"

	"rentory/pkg/model"
)

// Session is the shared state behind one scan pairing. A desktop viewer
// and any number of phone scanners mutate the same instance, so all
// access to the item list goes through its own mutex.
type Session struct {
	ID        string
	BookingID string // empty means scan-only, nothing is persisted
	CreatedAt time.Time

	mu    sync.Mutex
	items []*model.ScannedItem
}

// Add records one scan of itemID, incrementing the existing entry or
// appending a new one. It returns the quantity after the increment.
// The per-session lock serializes concurrent scans, so the final
// quantity always equals the number of accepted Add calls.
func (s *Session) Add(itemID, itemName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.items {
		if entry.ItemID == itemID {
			entry.Quantity++
			return entry.Quantity
		}
	}

	s.items = append(s.items, &model.ScannedItem{
		ItemID:   itemID,
		Quantity: 1,
		ItemName: itemName,
	})
	return 1
}

// Items returns a snapshot in first-scan order, safe for the caller to
// hold while scans continue.
func (s *Session) Items() []model.ScannedItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]model.ScannedItem, len(s.items))
	for i, entry := range s.items {
		snapshot[i] = *entry
	}
	return snapshot
}

// Store is the process-wide session table. Sessions expire lazily: an
// expired session is evicted on the Get that observes it, there is no
// background sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (st *Store) Put(session *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[session.ID] = session
}

// Get returns the live session for id, or false when it is unknown or
// expired. Expired sessions are indistinguishable from unknown ones.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	session, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if st.now().Sub(session.CreatedAt) > st.ttl {
		st.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// already evicted and a new session reused the id.
		if current, ok := st.sessions[id]; ok && current == session {
			delete(st.sessions, id)
		}
		st.mu.Unlock()
		return nil, false
	}

	return session, true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
