// Package watcher reloads persisted documents that change on disk while
// hyprtune runs, for example when another hyprtune process applies a
// recommendation.
//
// File events are mapped to document names and debounced per document, so
// an atomic replace (temp file, rename) yields one event.
package watcher

import (
	"context"
	"errors"
	"time"
)

// Errors returned by watcher operations.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
)

// Op is the kind of file operation that triggered an event.
type Op uint32

const (
	// OpCreate indicates a file was created or renamed into place.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file was removed or renamed away.
	OpRemove
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	default:
		return "MULTIPLE"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event reports that a document changed.
type Event struct {
	// Document is the persist document name.
	Document string

	// Path is the file that changed last.
	Path string

	// Op combines every operation seen during the debounce window.
	Op Op

	// Timestamp is when the last operation was seen.
	Timestamp time.Time
}

// Resolver maps file paths to document names.
type Resolver interface {
	DocumentForPath(path string) (string, bool)
}

// Reloader re-reads a document. The engine implements it.
type Reloader interface {
	Reload(doc string)
}

// Run feeds events from w to r until ctx is done or w is closed.
func Run(ctx context.Context, w *Watcher, r Reloader) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			log.WithField("document", ev.Document).WithField("op", ev.Op.String()).Debug("document changed on disk")
			r.Reload(ev.Document)

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")
		}
	}
}
