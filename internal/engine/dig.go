package engine

import (
	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/persist"
)

// paramsPart is the captured global parameter layer.
type paramsPart struct {
	values     map[string]any
	initiators map[string]string
}

// hotkeysPart is the captured hotkey registry.
type hotkeysPart struct {
	entries    []hotkey.Entry
	initiators map[string]string
}

// digSnapshot holds the global state from before the first DIG action of a
// session. Each part is captured independently, immediately before the first
// DIG touching it, and never overwritten. A nil part has nothing to restore.
type digSnapshot struct {
	params  *paramsPart
	hotkeys *hotkeysPart
}

func (s *digSnapshot) pending() bool {
	return s.params != nil || s.hotkeys != nil
}

// captureParams records the global layer unless already captured.
func (s *digSnapshot) captureParams(store *override.Store) {
	if s.params != nil {
		return
	}
	s.params = &paramsPart{
		values:     store.Global(),
		initiators: store.GlobalInitiators(),
	}
	log.WithField("entries", len(s.params.values)).Debug("captured global parameters for rollback")
}

// captureHotkeys records the hotkey registry unless already captured.
func (s *digSnapshot) captureHotkeys(reg *hotkey.Registry) {
	if s.hotkeys != nil {
		return
	}
	s.hotkeys = &hotkeysPart{
		entries:    reg.Entries(),
		initiators: reg.Initiators(),
	}
	log.WithField("entries", len(s.hotkeys.entries)).Debug("captured hotkeys for rollback")
}

// restore puts the captured parts back into memory, notifies observers and
// persists each restored document. The snapshot is emptied even when a write
// fails, since memory is authoritative from then on.
func (e *Engine) restore(s *digSnapshot) error {
	if !s.pending() {
		return nil
	}

	params, hotkeys := s.params, s.hotkeys
	*s = digSnapshot{}

	if params != nil {
		e.store.ReplaceGlobal(params.values, params.initiators)
	}
	if hotkeys != nil {
		e.hotkeys.Replace(hotkeys.entries, hotkeys.initiators)
	}
	e.deriveFlags()

	e.emit(params != nil, hotkeys != nil, e.emitter)

	var persisted []string
	failed := make(map[string]error)
	record := func(doc string, err error) {
		if err != nil {
			failed[doc] = err
			return
		}
		persisted = append(persisted, doc)
	}

	if params != nil {
		record(persist.DocGlobal, e.gateway.WriteGlobalOverrides(e.store.Global(), e.store.GlobalInitiators()))
	}
	if hotkeys != nil {
		record(persist.DocHotkeys, e.gateway.WriteHotkeyState(e.hotkeys.Entries(), e.hotkeys.Initiators()))
	}
	record(persist.DocRecommendations, e.gateway.WriteRecommendationState(e.tracker.State()))

	if len(failed) > 0 {
		err := &PartialRollbackError{Persisted: persisted, Failed: failed}
		log.WithError(err).Error("rollback was not fully persisted")
		return err
	}

	log.WithField("documents", persisted).Info("rolled back DIG changes")
	return nil
}
