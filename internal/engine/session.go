package engine

import (
	"errors"
	"sort"

	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/override"
)

// CloseMode says how a session ends.
type CloseMode int

const (
	// CloseSave keeps every DIG change.
	CloseSave CloseMode = iota
	// CloseCancel offers to roll the DIG changes back.
	CloseCancel
)

// String returns the mode name.
func (m CloseMode) String() string {
	switch m {
	case CloseSave:
		return "save"
	case CloseCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Session is one popup session in which DIG (duplicate to global) actions
// can be taken and later rolled back. Only one session is open at a time.
type Session struct {
	e        *Engine
	snapshot digSnapshot
	closed   bool
}

// OpenSession starts a session.
func (e *Engine) OpenSession() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return nil, oops.In("engine").Wrap(ErrSessionOpen)
	}
	e.session = &Session{e: e}
	return e.session, nil
}

// DigParameter copies the current profile's override of path into the
// global layer, recording the profile as initiator.
func (s *Session) DigParameter(path string) error {
	e := s.e
	e.mu.Lock()
	defer e.unlock()

	if s.closed {
		return oops.In("engine").Wrap(ErrSessionClosed)
	}

	var c changes
	if err := s.digParameter(path, &c); err != nil {
		return err
	}
	return e.commit(&c)
}

// DigHotkey duplicates a profile-scoped hotkey entry as a global entry. An
// entry whose binding already exists globally is left alone.
func (s *Session) DigHotkey(id string) error {
	e := s.e
	e.mu.Lock()
	defer e.unlock()

	if s.closed {
		return oops.In("engine").Wrap(ErrSessionClosed)
	}

	var c changes
	if _, err := s.digHotkey(id, &c); err != nil {
		return err
	}
	return e.commit(&c)
}

// DigAll duplicates every override and hotkey of the current profile to the
// global scope and returns how many items were copied.
func (s *Session) DigAll() (int, error) {
	e := s.e
	e.mu.Lock()
	defer e.unlock()

	if s.closed {
		return 0, oops.In("engine").Wrap(ErrSessionClosed)
	}
	profile := e.store.CurrentProfile()
	if profile == "" {
		return 0, oops.In("engine").Wrap(ErrNoProfile)
	}

	values := e.store.ProfileValues(profile)
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var c changes
	count := 0
	for _, path := range paths {
		if err := s.digParameter(path, &c); err != nil {
			return count, errors.Join(err, e.commit(&c))
		}
		count++
	}

	for _, entry := range e.hotkeys.Entries() {
		if entry.IsGlobal || entry.Profile != profile {
			continue
		}
		copied, err := s.digHotkey(entry.ID, &c)
		if err != nil {
			return count, errors.Join(err, e.commit(&c))
		}
		if copied {
			count++
		}
	}

	return count, e.commit(&c)
}

func (s *Session) digParameter(path string, c *changes) error {
	e := s.e
	profile := e.store.CurrentProfile()
	if profile == "" {
		return oops.In("engine").With("path", path).Wrap(ErrNoProfile)
	}

	val, ok := e.store.Get(override.Profile(profile), path)
	if !ok {
		return oops.In("engine").With("path", path).With("profile", profile).
			Wrapf(ErrNoProfileOverride, "parameter %q", path)
	}

	s.snapshot.captureParams(e.store)
	e.store.Set(override.Global, path, override.CloneValue(val), profile)
	c.global = true

	log.WithField("path", path).WithField("profile", profile).Debug("parameter duplicated to global")
	return nil
}

func (s *Session) digHotkey(id string, c *changes) (bool, error) {
	e := s.e
	entry, ok := e.hotkeys.Get(id)
	if !ok {
		return false, oops.In("engine").With("hotkey", id).Wrapf(ErrUnknownHotkey, "hotkey %q", id)
	}
	if entry.IsGlobal {
		return false, oops.In("engine").With("hotkey", id).Wrapf(ErrNotProfileHotkey, "hotkey %q", id)
	}
	if e.hotkeys.HasGlobalTarget(entry.Target()) {
		log.WithField("hotkey", id).Debug("binding already global, not duplicated")
		return false, nil
	}

	initiator := entry.Profile
	if initiator == "" {
		initiator = e.store.CurrentProfile()
	}

	s.snapshot.captureHotkeys(e.hotkeys)

	dup := entry.Clone()
	dup.ID = e.ids.NewID()
	dup.IsGlobal = true
	dup.Profile = ""
	dup.Timestamp = e.now()
	if err := e.hotkeys.Add(dup, initiator); err != nil {
		return false, oops.In("engine").With("hotkey", id).Wrapf(err, "duplicating hotkey %q", id)
	}
	c.hotkeys = true

	log.WithField("hotkey", id).WithField("global", dup.ID).Debug("hotkey duplicated to global")
	return true, nil
}

// HasPendingChanges reports whether any DIG action was captured for
// rollback.
func (s *Session) HasPendingChanges() bool {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	return s.snapshot.pending()
}

// Rollback restores the global state captured before the first DIG action.
// Only captured parts are restored. A persistence failure is returned as a
// *PartialRollbackError; memory is restored regardless.
func (s *Session) Rollback() error {
	e := s.e
	e.mu.Lock()
	defer e.unlock()

	if s.closed {
		return oops.In("engine").Wrap(ErrSessionClosed)
	}
	return e.restore(&s.snapshot)
}

// Discard drops the snapshot and keeps every DIG change.
func (s *Session) Discard() {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	s.snapshot = digSnapshot{}
}

// Close ends the session. With CloseSave the snapshot is discarded. With
// CloseCancel and pending changes, confirm is asked once whether to roll
// back; a nil confirm keeps the changes. Close reports whether a rollback
// ran.
func (s *Session) Close(mode CloseMode, confirm func() bool) (bool, error) {
	e := s.e
	e.mu.Lock()
	if s.closed {
		e.mu.Unlock()
		return false, oops.In("engine").Wrap(ErrSessionClosed)
	}
	s.closed = true
	if e.session == s {
		e.session = nil
	}
	pending := s.snapshot.pending()
	e.mu.Unlock()

	if mode != CloseCancel || !pending || confirm == nil || !confirm() {
		s.Discard()
		log.WithField("mode", mode.String()).Debug("session closed")
		return false, nil
	}

	e.mu.Lock()
	defer e.unlock()
	return true, e.restore(&s.snapshot)
}
