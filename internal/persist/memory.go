package persist

import (
	"sync"

	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/recommend"
)

// MemoryGateway keeps documents in memory. It counts writes per document and
// can be told to fail writes, which makes it the gateway of choice in tests.
type MemoryGateway struct {
	mu sync.Mutex

	global     GlobalOverrides
	profiles   map[string]map[string]any
	hotkeys    HotkeyState
	lines      []string
	state      recommend.State
	writes     map[string]int
	failWrites map[string]error
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		profiles:   make(map[string]map[string]any),
		writes:     make(map[string]int),
		failWrites: make(map[string]error),
	}
}

// FailWrites makes every write of doc return err. A nil err clears it.
func (g *MemoryGateway) FailWrites(doc string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		delete(g.failWrites, doc)
		return
	}
	g.failWrites[doc] = err
}

// Writes returns how many successful writes doc has received.
func (g *MemoryGateway) Writes(doc string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes[doc]
}

// ResetWrites clears the write counters.
func (g *MemoryGateway) ResetWrites() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = make(map[string]int)
}

// ReadGlobalOverrides implements Gateway.
func (g *MemoryGateway) ReadGlobalOverrides() GlobalOverrides {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := GlobalOverrides{
		Values:     override.CloneValues(g.global.Values),
		Initiators: override.CloneStrings(g.global.Initiators),
	}
	if out.Values == nil {
		out.Values = make(map[string]any)
	}
	if out.Initiators == nil {
		out.Initiators = make(map[string]string)
	}
	return out
}

// WriteGlobalOverrides implements Gateway.
func (g *MemoryGateway) WriteGlobalOverrides(values map[string]any, initiators map[string]string) error {
	return g.commit(DocGlobal, func() {
		g.global = GlobalOverrides{
			Values:     override.CloneValues(values),
			Initiators: override.CloneStrings(initiators),
		}
	})
}

// ReadProfileOverrides implements Gateway.
func (g *MemoryGateway) ReadProfileOverrides(name string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	values := override.CloneValues(g.profiles[name])
	if values == nil {
		return make(map[string]any)
	}
	return values
}

// WriteProfileOverrides implements Gateway.
func (g *MemoryGateway) WriteProfileOverrides(name string, values map[string]any) error {
	if name == "" {
		return oops.In("persist").Wrapf(ErrInvalidProfile, "empty profile name")
	}
	return g.commit(ProfileDoc(name), func() {
		g.profiles[name] = override.CloneValues(values)
	})
}

// ReadHotkeyState implements Gateway.
func (g *MemoryGateway) ReadHotkeyState() HotkeyState {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := HotkeyState{
		Entries:    cloneEntries(g.hotkeys.Entries),
		Initiators: override.CloneStrings(g.hotkeys.Initiators),
	}
	if out.Initiators == nil {
		out.Initiators = make(map[string]string)
	}
	return out
}

// WriteHotkeyState implements Gateway.
func (g *MemoryGateway) WriteHotkeyState(entries []hotkey.Entry, initiators map[string]string) error {
	return g.commit(DocHotkeys, func() {
		g.hotkeys = HotkeyState{
			Entries:    cloneEntries(entries),
			Initiators: override.CloneStrings(initiators),
		}
	})
}

// ReadExtraLines implements Gateway.
func (g *MemoryGateway) ReadExtraLines() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.lines...)
}

// WriteExtraLines implements Gateway.
func (g *MemoryGateway) WriteExtraLines(lines []string) error {
	return g.commit(DocExtraLines, func() {
		g.lines = append([]string(nil), lines...)
	})
}

// ReadRecommendationState implements Gateway.
func (g *MemoryGateway) ReadRecommendationState() recommend.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneState(g.state)
}

// WriteRecommendationState implements Gateway.
func (g *MemoryGateway) WriteRecommendationState(st recommend.State) error {
	return g.commit(DocRecommendations, func() {
		g.state = cloneState(st)
	})
}

func (g *MemoryGateway) commit(doc string, apply func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failWrites[doc]; err != nil {
		return oops.In("persist").With("document", doc).Wrapf(err, "writing %s", doc)
	}
	apply()
	g.writes[doc]++
	return nil
}

func cloneEntries(entries []hotkey.Entry) []hotkey.Entry {
	if entries == nil {
		return nil
	}
	out := make([]hotkey.Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

func cloneState(st recommend.State) recommend.State {
	out := recommend.State{
		Applied:    make(map[string]bool, len(st.Applied)),
		Workspaces: make(map[string][]int, len(st.Workspaces)),
	}
	for k, v := range st.Applied {
		out.Applied[k] = v
	}
	for k, v := range st.Workspaces {
		out.Workspaces[k] = append([]int(nil), v...)
	}
	return out
}

var (
	_ Gateway = (*MemoryGateway)(nil)
	_ Gateway = (*FileGateway)(nil)
)
