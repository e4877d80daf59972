package engine

import (
	"errors"
	"sort"
	"strings"
)

// Errors returned by engine operations.
var (
	// ErrUnknownRecommendation indicates an id missing from the catalog.
	ErrUnknownRecommendation = errors.New("unknown recommendation")

	// ErrNotWorkspaceRule indicates a workspace operation on another variant.
	ErrNotWorkspaceRule = errors.New("recommendation is not a workspace rule")

	// ErrWorkspaceNotOffered indicates a workspace the rule does not offer.
	ErrWorkspaceNotOffered = errors.New("workspace not offered by recommendation")

	// ErrSessionOpen indicates a second session while one is still open.
	ErrSessionOpen = errors.New("a session is already open")

	// ErrSessionClosed indicates use of a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNoLayer indicates an edit addressed to the zero Scope.
	ErrNoLayer = errors.New("override scope addresses no layer")

	// ErrNoProfile indicates a profile operation without a current profile.
	ErrNoProfile = errors.New("no current profile")

	// ErrNoProfileOverride indicates a DIG of a parameter the profile does
	// not override.
	ErrNoProfileOverride = errors.New("parameter is not overridden by the profile")

	// ErrUnknownHotkey indicates a hotkey id missing from the registry.
	ErrUnknownHotkey = errors.New("unknown hotkey entry")

	// ErrNotProfileHotkey indicates a DIG of an entry that is already global.
	ErrNotProfileHotkey = errors.New("hotkey entry is not profile scoped")
)

// PartialRollbackError reports a rollback whose in-memory restore succeeded
// but whose persistence failed for some documents.
type PartialRollbackError struct {
	// Persisted lists documents written successfully.
	Persisted []string
	// Failed maps each document that could not be written to its error.
	Failed map[string]error
}

func (e *PartialRollbackError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for doc := range e.Failed {
		failed = append(failed, doc)
	}
	sort.Strings(failed)
	return "rollback partially persisted: failed [" + strings.Join(failed, ", ") +
		"], persisted [" + strings.Join(e.Persisted, ", ") + "]"
}

// Unwrap returns the underlying write errors.
func (e *PartialRollbackError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}
