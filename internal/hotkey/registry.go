package hotkey

import (
	"errors"
	"sync"
)

// Errors returned by registry operations.
var (
	// ErrEmptyID indicates an entry without an id.
	ErrEmptyID = errors.New("hotkey entry has no id")

	// ErrDuplicateID indicates an id that is already registered.
	ErrDuplicateID = errors.New("hotkey entry id already registered")
)

// Registry holds hotkey overrides keyed by id, in insertion order, together
// with the initiator recorded for each id.
//
// Thread Safety:
// Registry is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	entries    map[string]Entry
	order      []string
	initiators map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:    make(map[string]Entry),
		initiators: make(map[string]string),
	}
}

// Add registers an entry. The initiator may be empty.
func (r *Registry) Add(entry Entry, initiator string) error {
	if entry.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.ID]; exists {
		return ErrDuplicateID
	}
	r.entries[entry.ID] = entry.Clone()
	r.order = append(r.order, entry.ID)
	if initiator != "" {
		r.initiators[entry.ID] = initiator
	}
	return nil
}

// Get returns an entry by id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.Clone(), true
}

// Remove deletes an entry by id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

// RemoveTarget deletes every entry whose normalized target equals target and
// returns the removed entries.
func (r *Registry) RemoveTarget(target string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []Entry
	for _, id := range append([]string(nil), r.order...) {
		e := r.entries[id]
		if e.Target() != target {
			continue
		}
		removed = append(removed, e)
		r.removeLocked(id)
	}
	return removed
}

// HasGlobalTarget reports whether any global entry has the given target.
func (r *Registry) HasGlobalTarget(target string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		e := r.entries[id]
		if e.IsGlobal && e.Target() == target {
			return true
		}
	}
	return false
}

// Entries returns copies of all entries in insertion order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id].Clone())
	}
	return result
}

// Initiators returns a copy of the id to initiator map.
func (r *Registry) Initiators() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]string, len(r.initiators))
	for k, v := range r.initiators {
		result[k] = v
	}
	return result
}

// Replace swaps the whole registry content. Entries without an id and
// repeated ids are dropped; initiators for unknown ids are ignored.
func (r *Registry) Replace(entries []Entry, initiators map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]Entry, len(entries))
	r.order = make([]string, 0, len(entries))
	r.initiators = make(map[string]string, len(initiators))

	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if _, dup := r.entries[e.ID]; dup {
			continue
		}
		r.entries[e.ID] = e.Clone()
		r.order = append(r.order, e.ID)
	}
	for id, who := range initiators {
		if _, ok := r.entries[id]; ok {
			r.initiators[id] = who
		}
	}
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// removeLocked deletes an entry (must be called with lock held).
func (r *Registry) removeLocked(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	delete(r.initiators, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}
