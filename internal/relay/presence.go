package relay

import "sync"

// PresenceStore tracks which bridge connection, if any, is currently online
// for each gym. At most one bridge is tracked per gym; a newer connection
// silently takes over from an older one.
//
// All methods are safe for concurrent use.
type PresenceStore struct {
	mu      sync.RWMutex
	bridges map[string]string // gym id -> connection id
}

// NewPresenceStore creates an empty presence store.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		bridges: make(map[string]string),
	}
}

// Set records connID as the online bridge for gymID.
//
// Returns the connection id of a previously tracked bridge when this call
// displaces one, or the empty string when the gym had no bridge online.
func (s *PresenceStore) Set(gymID, connID string) (displaced string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.bridges[gymID]
	s.bridges[gymID] = connID
	if prev == connID {
		return ""
	}
	return prev
}

// Remove clears presence for gymID, but only if connID still owns it. A
// bridge that was displaced by a newer connection must not clear the newer
// connection's presence when it eventually disconnects.
//
// Returns true when presence was actually cleared.
func (s *PresenceStore) Remove(gymID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bridges[gymID] != connID {
		return false
	}
	delete(s.bridges, gymID)
	return true
}

// Get returns the connection id of the bridge tracked for gymID, if any.
func (s *PresenceStore) Get(gymID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	connID, ok := s.bridges[gymID]
	return connID, ok
}

// Online reports whether gymID currently has a bridge tracked.
func (s *PresenceStore) Online(gymID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bridges[gymID]
	return ok
}
