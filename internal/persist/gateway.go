// Package persist reads and writes the durable hyprtune documents: global
// overrides, per-profile overrides, hotkey overrides, extra config lines and
// recommendation bookkeeping.
//
// Reads never fail. A missing or corrupt document reads as empty so a storage
// problem can never block the user. Writes report their errors.
package persist

import (
	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/recommend"
)

// Document names, used in logs, errors and by the debounced gateway.
const (
	DocGlobal          = "global"
	DocHotkeys         = "hotkeys"
	DocExtraLines      = "extra_lines"
	DocRecommendations = "recommendations"
	docProfilePrefix   = "profile:"
)

// ProfileDoc returns the document name of a profile's overrides.
func ProfileDoc(name string) string {
	return docProfilePrefix + name
}

// GlobalOverrides is the content of the global overrides document.
type GlobalOverrides struct {
	Values     map[string]any    `toml:"values"`
	Initiators map[string]string `toml:"initiators"`
}

// HotkeyState is the content of the hotkey document. Entries keep insertion
// order.
type HotkeyState struct {
	Entries    []hotkey.Entry    `toml:"entries"`
	Initiators map[string]string `toml:"initiators"`
}

// Gateway is the storage contract the engine depends on.
type Gateway interface {
	ReadGlobalOverrides() GlobalOverrides
	WriteGlobalOverrides(values map[string]any, initiators map[string]string) error

	ReadProfileOverrides(name string) map[string]any
	WriteProfileOverrides(name string, values map[string]any) error

	ReadHotkeyState() HotkeyState
	WriteHotkeyState(entries []hotkey.Entry, initiators map[string]string) error

	ReadExtraLines() []string
	WriteExtraLines(lines []string) error

	ReadRecommendationState() recommend.State
	WriteRecommendationState(st recommend.State) error
}
