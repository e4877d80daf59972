package override

import (
	"sync"
)

// Store owns the global and per-profile override layers, the initiators of
// global entries, and the raw extra config lines.
//
// Thread Safety:
// Store is safe for concurrent use. Callers that need several operations to
// appear atomic (a cascade, a rollback) must serialize them themselves.
type Store struct {
	mu sync.RWMutex

	global     map[string]any
	initiators map[string]string
	profiles   map[string]map[string]any
	current    string
	lines      []string
}

// NewStore creates an empty store with no current profile.
func NewStore() *Store {
	return &Store{
		global:     make(map[string]any),
		initiators: make(map[string]string),
		profiles:   make(map[string]map[string]any),
	}
}

// CurrentProfile returns the name of the active profile.
func (s *Store) CurrentProfile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// UseProfile makes name the current profile and replaces its layer with values.
func (s *Store) UseProfile(name string, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = name
	s.profiles[name] = cloneOrEmpty(values)
}

// Get returns the value stored in a single layer.
func (s *Store) Get(scope Scope, path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer := s.layer(scope)
	if layer == nil {
		return nil, false
	}
	val, ok := layer[path]
	return val, ok
}

// Set stores a value in a layer. The initiator is recorded for global entries
// only and may be empty. Setting the zero Scope does nothing.
func (s *Store) Set(scope Scope, path string, value any, initiator string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope.IsNone() {
		return
	}
	if scope.IsGlobal() {
		s.global[path] = value
		if initiator != "" {
			s.initiators[path] = initiator
		} else {
			delete(s.initiators, path)
		}
		return
	}

	layer, ok := s.profiles[scope.Name]
	if !ok {
		layer = make(map[string]any)
		s.profiles[scope.Name] = layer
	}
	layer[path] = value
}

// Delete removes a value from a layer and reports whether it existed.
func (s *Store) Delete(scope Scope, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer := s.layer(scope)
	if layer == nil {
		return false
	}
	if _, ok := layer[path]; !ok {
		return false
	}
	delete(layer, path)
	if scope.IsGlobal() {
		delete(s.initiators, path)
	}
	return true
}

// IsOverridden reports whether path has an entry in the current profile's
// layer or in the global layer.
func (s *Store) IsOverridden(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if layer, ok := s.profiles[s.current]; ok {
		if _, ok := layer[path]; ok {
			return true
		}
	}
	_, ok := s.global[path]
	return ok
}

// Effective returns the value shown for path and the scope it came from.
// The current profile takes precedence over the global layer.
func (s *Store) Effective(path string) (any, Scope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if layer, ok := s.profiles[s.current]; ok {
		if val, ok := layer[path]; ok {
			return val, Profile(s.current), true
		}
	}
	if val, ok := s.global[path]; ok {
		return val, Global, true
	}
	return nil, Scope{}, false
}

// Global returns a deep copy of the global layer.
func (s *Store) Global() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneValues(s.global)
}

// GlobalInitiators returns a copy of the global initiators map.
func (s *Store) GlobalInitiators() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneStrings(s.initiators)
}

// ReplaceGlobal swaps the global layer and its initiators for copies of the
// given maps.
func (s *Store) ReplaceGlobal(values map[string]any, initiators map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.global = cloneOrEmpty(values)
	s.initiators = CloneStrings(initiators)
	if s.initiators == nil {
		s.initiators = make(map[string]string)
	}
}

// ProfileValues returns a deep copy of a profile layer.
func (s *Store) ProfileValues(name string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneValues(s.profiles[name])
}

// Lines returns a copy of the extra config lines.
func (s *Store) Lines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.lines...)
}

// AppendLine adds a raw config line.
func (s *Store) AppendLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

// RemoveLine deletes every line equal to line and returns how many were removed.
func (s *Store) RemoveLine(line string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	removed := 0
	for _, l := range s.lines {
		if l == line {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	return removed
}

// ReplaceLines swaps the extra lines for a copy of lines.
func (s *Store) ReplaceLines(lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append([]string(nil), lines...)
}

// layer returns the map backing scope (must be called with lock held).
func (s *Store) layer(scope Scope) map[string]any {
	switch scope.Kind {
	case KindGlobal:
		return s.global
	case KindProfile:
		return s.profiles[scope.Name]
	default:
		return nil
	}
}

func cloneOrEmpty(values map[string]any) map[string]any {
	if values == nil {
		return make(map[string]any)
	}
	return CloneValues(values)
}
