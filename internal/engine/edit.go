package engine

import (
	"reflect"

	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/persist"
)

// SetOverride stores value for path in scope. Global entries record
// InitiatorUser. An empty profile name means the current profile.
func (e *Engine) SetOverride(scope override.Scope, path string, value any) error {
	e.mu.Lock()
	defer e.unlock()

	scope, err := e.resolveScope(scope)
	if err != nil {
		return err
	}

	var c changes
	if scope.IsGlobal() {
		e.store.Set(scope, path, override.CloneValue(value), InitiatorUser)
		c.global = true
	} else {
		e.store.Set(scope, path, override.CloneValue(value), "")
		c.profile(scope.Name)
	}
	return e.commit(&c)
}

// ClearOverride removes path from scope. Clearing a missing entry does
// nothing.
func (e *Engine) ClearOverride(scope override.Scope, path string) error {
	e.mu.Lock()
	defer e.unlock()

	scope, err := e.resolveScope(scope)
	if err != nil {
		return err
	}
	if !e.store.Delete(scope, path) {
		return nil
	}

	var c changes
	if scope.IsGlobal() {
		c.global = true
	} else {
		c.profile(scope.Name)
	}
	return e.commit(&c)
}

// SetProfile makes name the current profile and loads its overrides.
func (e *Engine) SetProfile(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.profile = name
	e.store.UseProfile(name, e.gateway.ReadProfileOverrides(name))
	log.WithField("profile", name).Info("profile selected")
}

// AddHotkey registers a hotkey override and returns the stored entry. A
// missing id or timestamp is generated, a missing action defaults to add,
// and profile-scoped entries default to the current profile.
func (e *Engine) AddHotkey(entry hotkey.Entry) (hotkey.Entry, error) {
	e.mu.Lock()
	defer e.unlock()

	if entry.ID == "" {
		entry.ID = e.ids.NewID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = e.now()
	}
	if entry.Action == "" {
		entry.Action = hotkey.ActionAdd
	}

	initiator := InitiatorUser
	if entry.IsGlobal {
		entry.Profile = ""
	} else {
		if entry.Profile == "" {
			entry.Profile = e.store.CurrentProfile()
		}
		if entry.Profile == "" {
			return hotkey.Entry{}, oops.In("engine").Wrapf(ErrNoProfile, "profile hotkey")
		}
		initiator = entry.Profile
	}

	if err := e.hotkeys.Add(entry, initiator); err != nil {
		return hotkey.Entry{}, oops.In("engine").With("hotkey", entry.ID).Wrap(err)
	}

	c := changes{hotkeys: true}
	return entry.Clone(), e.commit(&c)
}

// RemoveHotkey deletes a hotkey override by id.
func (e *Engine) RemoveHotkey(id string) error {
	e.mu.Lock()
	defer e.unlock()

	if !e.hotkeys.Remove(id) {
		return oops.In("engine").With("hotkey", id).Wrapf(ErrUnknownHotkey, "hotkey %q", id)
	}
	c := changes{hotkeys: true}
	return e.commit(&c)
}

// Reload re-reads one persisted document after it changed outside this
// engine. Observers are notified with ExternalEmitter when global overrides
// or hotkeys actually differ from memory.
func (e *Engine) Reload(doc string) {
	e.mu.Lock()
	defer e.unlock()

	var globalChanged, hotkeysChanged bool

	switch doc {
	case persist.DocGlobal:
		g := e.gateway.ReadGlobalOverrides()
		if !reflect.DeepEqual(g.Values, e.store.Global()) || !reflect.DeepEqual(g.Initiators, e.store.GlobalInitiators()) {
			e.store.ReplaceGlobal(g.Values, g.Initiators)
			globalChanged = true
		}

	case persist.DocHotkeys:
		hk := e.gateway.ReadHotkeyState()
		if !sameEntries(hk.Entries, e.hotkeys.Entries()) || !reflect.DeepEqual(hk.Initiators, e.hotkeys.Initiators()) {
			e.hotkeys.Replace(hk.Entries, hk.Initiators)
			hotkeysChanged = true
		}

	case persist.DocExtraLines:
		e.store.ReplaceLines(e.gateway.ReadExtraLines())

	case persist.DocRecommendations:
		e.tracker.Load(e.gateway.ReadRecommendationState())

	case persist.ProfileDoc(e.store.CurrentProfile()):
		name := e.store.CurrentProfile()
		e.store.UseProfile(name, e.gateway.ReadProfileOverrides(name))

	default:
		log.WithField("document", doc).Debug("ignoring change to unrelated document")
		return
	}

	e.deriveFlags()
	e.emit(globalChanged, hotkeysChanged, ExternalEmitter)
	log.WithField("document", doc).Info("document reloaded")
}

func (e *Engine) resolveScope(scope override.Scope) (override.Scope, error) {
	if scope.IsNone() {
		return scope, oops.In("engine").Wrap(ErrNoLayer)
	}
	if scope.IsGlobal() || scope.Name != "" {
		return scope, nil
	}
	name := e.store.CurrentProfile()
	if name == "" {
		return scope, oops.In("engine").Wrap(ErrNoProfile)
	}
	return override.Profile(name), nil
}

// sameEntries compares entries by identity and binding, ignoring timestamp
// representation.
func sameEntries(a, b []hotkey.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Target() != y.Target() || x.Dispatcher != y.Dispatcher ||
			x.Args != y.Args || x.Action != y.Action || x.IsGlobal != y.IsGlobal ||
			x.IsRecommended != y.IsRecommended || x.Profile != y.Profile {
			return false
		}
	}
	return true
}
