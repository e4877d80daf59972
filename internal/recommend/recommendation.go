// Package recommend defines curated configuration recommendations and the
// per-session bookkeeping of which ones are applied.
//
// A Recommendation is a closed sum type. Every variant embeds Meta, which
// carries the id, the category and the ids of dependent recommendations that
// are applied and reverted together with it.
//
//	switch r := rec.(type) {
//	case *recommend.Param:
//	case *recommend.Keybind:
//	case *recommend.Rule:
//	case *recommend.WorkspaceRule:
//	case *recommend.Unknown:
//	}
package recommend

import (
	"strconv"
	"strings"

	"github.com/dshills/hyprtune/internal/hotkey"
)

// Kind names a recommendation variant. The string values are the catalog tags.
type Kind string

const (
	KindParam         Kind = "param"
	KindKeybind       Kind = "keybind"
	KindRule          Kind = "rule"
	KindWorkspaceRule Kind = "workspace_rule"
)

// WorkspacePlaceholder is replaced by the workspace number in rule templates.
const WorkspacePlaceholder = "{ws}"

// Meta is shared by every variant.
type Meta struct {
	ID          string
	Category    string
	Title       string
	Description string
	Dependents  []string
}

// Info returns the shared metadata.
func (m Meta) Info() Meta {
	return m
}

// Recommendation is implemented only by the variants in this package.
type Recommendation interface {
	Info() Meta
	Kind() Kind
	sealed()
}

// Param sets a parameter to a recommended value in the global layer.
type Param struct {
	Meta
	ParamPath    string
	DefaultValue any
}

// Keybind adds a global hotkey override.
type Keybind struct {
	Meta
	Modifiers  []string
	Key        string
	BindType   BindType
	Dispatcher string
	Args       string
}

// Rule appends a raw config line.
type Rule struct {
	Meta
	RuleLine string
}

// WorkspaceRule materializes RuleTemplate once per selected workspace.
type WorkspaceRule struct {
	Meta
	RuleTemplate string
	Workspaces   []int
}

// Unknown stands in for catalog entries of a kind this build does not know.
// Applying or reverting it only flips its flag.
type Unknown struct {
	Meta
	Type string
}

func (*Param) Kind() Kind { return KindParam }
func (*Keybind) Kind() Kind { return KindKeybind }
func (*Rule) Kind() Kind { return KindRule }
func (*WorkspaceRule) Kind() Kind { return KindWorkspaceRule }
func (u *Unknown) Kind() Kind { return Kind(u.Type) }

func (*Param) sealed() {}
func (*Keybind) sealed() {}
func (*Rule) sealed() {}
func (*WorkspaceRule) sealed() {}
func (*Unknown) sealed() {}

// Target returns the normalized hotkey signature of the binding.
func (k *Keybind) Target() string {
	return hotkey.Target(string(k.BindType), k.Modifiers, k.Key)
}

// Line instantiates the template for one workspace.
func (w *WorkspaceRule) Line(ws int) string {
	return strings.ReplaceAll(w.RuleTemplate, WorkspacePlaceholder, strconv.Itoa(ws))
}

// Offers reports whether ws is one of the rule's workspaces.
func (w *WorkspaceRule) Offers(ws int) bool {
	for _, o := range w.Workspaces {
		if o == ws {
			return true
		}
	}
	return false
}

// BindType is the Hyprland bind keyword of a keybinding.
type BindType string

const (
	BindNormal      BindType = "bind"
	BindMouse       BindType = "bindm"
	BindRepeat      BindType = "binde"
	BindLocked      BindType = "bindl"
	BindRelease     BindType = "bindr"
	BindNonConsume  BindType = "bindn"
	BindRepeatLock  BindType = "bindel"
	BindReleaseLock BindType = "bindrl"
)

// Valid reports whether b is a known bind keyword.
func (b BindType) Valid() bool {
	switch b {
	case BindNormal, BindMouse, BindRepeat, BindLocked, BindRelease,
		BindNonConsume, BindRepeatLock, BindReleaseLock:
		return true
	default:
		return false
	}
}
