// Package override holds the two layers of parameter overrides: the global
// layer and one layer per profile (theme).
//
// A parameter is overridden when either the current profile's layer or the
// global layer has an entry for it. The profile entry wins when an effective
// value is displayed.
package override

import "fmt"

// ScopeKind identifies which layer a Scope refers to.
type ScopeKind uint8

const (
	// KindNone is the zero Scope. It addresses no layer and is returned for
	// values that come from the catalog default.
	KindNone ScopeKind = iota
	// KindGlobal is the global layer shared by all profiles.
	KindGlobal
	// KindProfile is a single profile's layer.
	KindProfile
)

// Scope addresses one override layer.
type Scope struct {
	Kind ScopeKind
	Name string
}

// Global is the global override scope.
var Global = Scope{Kind: KindGlobal}

// Profile returns the scope for the named profile.
func Profile(name string) Scope {
	return Scope{Kind: KindProfile, Name: name}
}

// IsGlobal reports whether s is the global scope.
func (s Scope) IsGlobal() bool {
	return s.Kind == KindGlobal
}

// IsNone reports whether s is the zero Scope.
func (s Scope) IsNone() bool {
	return s.Kind == KindNone
}

// String returns "none", "global" or "profile:<name>".
func (s Scope) String() string {
	switch s.Kind {
	case KindNone:
		return "none"
	case KindGlobal:
		return "global"
	case KindProfile:
		return fmt.Sprintf("profile:%s", s.Name)
	default:
		return "unknown"
	}
}
