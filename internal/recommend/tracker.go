package recommend

import (
	"sort"
	"sync"
)

// WorkspacesKey is the bookkeeping key under which a workspace rule's last
// reconciled selection is recorded.
func WorkspacesKey(id string) string {
	return id + "_workspaces"
}

// State is the persisted form of a Tracker.
type State struct {
	Applied    map[string]bool  `toml:"applied"`
	Workspaces map[string][]int `toml:"workspaces"`
}

// Tracker records applied flags and workspace selections for one session.
//
// Thread Safety:
// Tracker is safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	applied    map[string]bool
	workspaces map[string][]int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		applied:    make(map[string]bool),
		workspaces: make(map[string][]int),
	}
}

// Applied returns the flag for id.
func (t *Tracker) Applied(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.applied[id]
}

// SetApplied sets or clears the flag for id.
func (t *Tracker) SetApplied(id string, applied bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if applied {
		t.applied[id] = true
		return
	}
	delete(t.applied, id)
}

// Workspaces returns the recorded selection for id, or nil.
func (t *Tracker) Workspaces(id string) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]int(nil), t.workspaces[id]...)
}

// HasWorkspaces reports whether a selection is recorded for id.
func (t *Tracker) HasWorkspaces(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.workspaces[id]
	return ok
}

// SetWorkspaces records a selection. An empty selection deletes the record.
func (t *Tracker) SetWorkspaces(id string, selection []int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(selection) == 0 {
		delete(t.workspaces, id)
		return
	}
	t.workspaces[id] = append([]int(nil), selection...)
}

// Forget clears both the flag and the selection of id.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.applied, id)
	delete(t.workspaces, id)
}

// Keys returns every bookkeeping key in the combined flag namespace: applied
// ids and "{id}_workspaces" entries, sorted.
func (t *Tracker) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.applied)+len(t.workspaces))
	for id := range t.applied {
		keys = append(keys, id)
	}
	for id := range t.workspaces {
		keys = append(keys, WorkspacesKey(id))
	}
	sort.Strings(keys)
	return keys
}

// State returns a copy suitable for persistence.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st := State{
		Applied:    make(map[string]bool, len(t.applied)),
		Workspaces: make(map[string][]int, len(t.workspaces)),
	}
	for id, v := range t.applied {
		st.Applied[id] = v
	}
	for id, ws := range t.workspaces {
		st.Workspaces[id] = append([]int(nil), ws...)
	}
	return st
}

// Load replaces the tracker content with st. False flags and empty
// selections are dropped.
func (t *Tracker) Load(st State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.applied = make(map[string]bool, len(st.Applied))
	t.workspaces = make(map[string][]int, len(st.Workspaces))
	for id, v := range st.Applied {
		if v {
			t.applied[id] = true
		}
	}
	for id, ws := range st.Workspaces {
		if len(ws) > 0 {
			t.workspaces[id] = append([]int(nil), ws...)
		}
	}
}
