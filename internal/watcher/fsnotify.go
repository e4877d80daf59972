package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/logging"
)

var log = logging.For("watcher")

// Default configuration values.
const (
	DefaultDebounceDelay = 100 * time.Millisecond
	DefaultBufferSize    = 64
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDelay sets how long a document must be quiet before its event
// is delivered.
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithBufferSize sets the size of the event and error channels.
func WithBufferSize(size int) Option {
	return func(w *Watcher) {
		if size > 0 {
			w.bufSize = size
		}
	}
}

// Watcher watches a state directory and its subdirectories with fsnotify.
type Watcher struct {
	fsw      *fsnotify.Watcher
	resolver Resolver
	delay    time.Duration
	bufSize  int

	mu      sync.Mutex
	pending map[string]*pendingEvent
	closed  bool

	events   chan Event
	errors   chan error
	closeCh  chan struct{}
	closedWg sync.WaitGroup

	totalEvents int64
}

// pendingEvent tracks a debounced document event.
type pendingEvent struct {
	event Event
	timer *time.Timer
}

// New watches dirs, creating them when missing. Paths are mapped to
// documents through resolver; paths it does not know are ignored.
func New(resolver Resolver, dirs []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, oops.In("watcher").Wrapf(err, "creating fsnotify watcher")
	}

	w := &Watcher{
		fsw:      fsw,
		resolver: resolver,
		delay:    DefaultDebounceDelay,
		bufSize:  DefaultBufferSize,
		pending:  make(map[string]*pendingEvent),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.events = make(chan Event, w.bufSize)
	w.errors = make(chan error, w.bufSize)

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fsw.Close()
			return nil, oops.In("watcher").With("dir", dir).Wrapf(err, "creating watched directory")
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, oops.In("watcher").With("dir", dir).Wrapf(err, "watching directory")
		}
		log.WithField("dir", dir).Debug("watching")
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Events returns the debounced document events. The channel is closed by
// Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the watch errors. The channel is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and drops pending events.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)

	for doc, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, doc)
	}
	w.mu.Unlock()

	w.closedWg.Wait()

	// A timer that fired before Stop may still be sending.
	w.mu.Lock()
	close(w.events)
	close(w.errors)
	w.mu.Unlock()

	return w.fsw.Close()
}

// Flush delivers every pending event immediately.
func (w *Watcher) Flush() {
	w.mu.Lock()
	docs := make([]string, 0, len(w.pending))
	for doc, p := range w.pending {
		p.timer.Stop()
		docs = append(docs, doc)
	}
	w.mu.Unlock()

	for _, doc := range docs {
		w.fire(doc)
	}
}

// PendingCount returns the number of documents waiting for their debounce
// delay.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// TotalEvents returns how many events were delivered.
func (w *Watcher) TotalEvents() int64 {
	return atomic.LoadInt64(&w.totalEvents)
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handle maps an fsnotify event to a document and debounces it.
func (w *Watcher) handle(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	doc, ok := w.resolver.DocumentForPath(filepath.Clean(fsEvent.Name))
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if p, exists := w.pending[doc]; exists {
		p.event.Op |= op
		p.event.Path = fsEvent.Name
		p.event.Timestamp = time.Now()
		p.timer.Reset(w.delay)
		return
	}

	w.pending[doc] = &pendingEvent{
		event: Event{Document: doc, Path: fsEvent.Name, Op: op, Timestamp: time.Now()},
		timer: time.AfterFunc(w.delay, func() { w.fire(doc) }),
	}
}

// fire sends the pending event of doc and forgets it.
func (w *Watcher) fire(doc string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.pending[doc]
	if !exists || w.closed {
		return
	}
	delete(w.pending, doc)

	select {
	case w.events <- p.event:
		atomic.AddInt64(&w.totalEvents, 1)
	default:
		log.WithField("document", doc).Warn("event channel full, dropping event")
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// convertOp keeps the operations that can change a document's content.
// Renames are reported by fsnotify as Create on the new name, so Rename
// (the old name going away) counts as a removal.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) || fsOp.Has(fsnotify.Rename) {
		op |= OpRemove
	}
	return op
}
