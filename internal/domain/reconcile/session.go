package reconcile

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the per-operator mutable state of the reconciliation
// pipeline. It is constructed once per operator session and passed by
// reference into the match evaluator and the processing passes; there is no
// ambient global state.
//
// Three key sets with two lifecycles:
//   - seen: every key observed in any previous load cycle. Grows for the
//     life of the session (union on every load), never shrinks. Drives the
//     sticky classification rule.
//   - existing: keys known to already have a shipment. Rebuilt each load
//     cycle by the existence verifier, then grown as the pipeline creates
//     shipments within the same cycle.
//   - processed: keys the pipeline attempted a conversion for in the current
//     cycle. Prevents duplicate creator calls within one run.
type Session struct {
	// ID identifies the operator session
	ID uuid.UUID
	// StartedAt is when the session was created
	StartedAt time.Time

	mu        sync.RWMutex
	seen      map[OrderKey]struct{}
	existing  map[OrderKey]struct{}
	processed map[OrderKey]struct{}
	cycles    int
}

// NewSession creates a fresh reconciliation session
func NewSession() *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		seen:      make(map[OrderKey]struct{}),
		existing:  make(map[OrderKey]struct{}),
		processed: make(map[OrderKey]struct{}),
	}
}

// BeginCycle starts a new load cycle: the existence index and the processed
// set are discarded and rebuilt, the seen set survives.
func (s *Session) BeginCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existing = make(map[OrderKey]struct{})
	s.processed = make(map[OrderKey]struct{})
	s.cycles++
}

// Cycles returns the number of load cycles started in this session
func (s *Session) Cycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

// ---------------------------------------------------------------------------
// Seen Set
// ---------------------------------------------------------------------------

// MarkSeen records keys as observed by this session
func (s *Session) MarkSeen(keys ...OrderKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.seen[k] = struct{}{}
	}
}

// HasSeen returns true if the key was observed in a previous load cycle
func (s *Session) HasSeen(key OrderKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[key]
	return ok
}

// SeenCount returns the size of the seen set
func (s *Session) SeenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// ---------------------------------------------------------------------------
// Existing Shipment Index
// ---------------------------------------------------------------------------

// AddExisting records keys as already having a shipment
func (s *Session) AddExisting(keys ...OrderKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.existing[k] = struct{}{}
	}
}

// Exists returns true if the key is known to already have a shipment
func (s *Session) Exists(key OrderKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.existing[key]
	return ok
}

// ExistingCount returns the size of the existence index
func (s *Session) ExistingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.existing)
}

// ---------------------------------------------------------------------------
// Processed Set
// ---------------------------------------------------------------------------

// MarkProcessed records a conversion attempt for the key. Returns false if
// the key was already marked in this cycle, so callers get an at-most-once
// guard for free.
func (s *Session) MarkProcessed(key OrderKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processed[key]; ok {
		return false
	}
	s.processed[key] = struct{}{}
	return true
}

// IsProcessed returns true if a conversion was attempted for the key in the
// current cycle
func (s *Session) IsProcessed(key OrderKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[key]
	return ok
}

// ProcessedCount returns the size of the processed set
func (s *Session) ProcessedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processed)
}
