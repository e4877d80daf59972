// Package hotkey stores keybinding overrides and decides when two bindings
// refer to the same key combination.
package hotkey

import (
	"sort"
	"strings"
	"time"
)

// Action says whether an override adds a binding or suppresses one.
type Action string

const (
	// ActionAdd adds a binding.
	ActionAdd Action = "add"
	// ActionRemove unbinds an existing binding.
	ActionRemove Action = "remove"
)

// Metadata describes the key combination of an entry.
type Metadata struct {
	Modifiers []string `toml:"modifiers" yaml:"modifiers"`
	Key       string   `toml:"key" yaml:"key"`
	BindType  string   `toml:"bind_type" yaml:"bind_type"`
}

// Entry is a single hotkey override.
type Entry struct {
	ID            string    `toml:"id"`
	Dispatcher    string    `toml:"dispatcher"`
	Args          string    `toml:"args,omitempty"`
	Action        Action    `toml:"action"`
	IsGlobal      bool      `toml:"is_global"`
	IsRecommended bool      `toml:"is_recommended"`
	Profile       string    `toml:"profile,omitempty"`
	Metadata      Metadata  `toml:"metadata"`
	Timestamp     time.Time `toml:"timestamp"`
}

// Target returns the normalized signature of the entry's key combination.
func (e Entry) Target() string {
	return Target(e.Metadata.BindType, e.Metadata.Modifiers, e.Metadata.Key)
}

// Clone returns a copy that shares no slices with e.
func (e Entry) Clone() Entry {
	e.Metadata.Modifiers = append([]string(nil), e.Metadata.Modifiers...)
	return e
}

// Target builds the canonical "{bindType}:{MODS}:{key}" signature.
// Modifiers are uppercased and sorted, so order and case never matter.
func Target(bindType string, modifiers []string, key string) string {
	return bindType + ":" + NormalizeModifiers(modifiers) + ":" + key
}

// NormalizeModifiers uppercases, sorts and joins modifiers with "+".
func NormalizeModifiers(modifiers []string) string {
	mods := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		mods = append(mods, m)
	}
	sort.Strings(mods)
	return strings.Join(mods, "+")
}
