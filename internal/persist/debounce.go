package persist

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/recommend"
)

// DefaultDebounce is the delay used when NewDebounced is given a non-positive
// delay.
const DefaultDebounce = 200 * time.Millisecond

// Debounced wraps a Gateway and coalesces rapid writes. Each document has at
// most one pending write; a newer write replaces it and restarts its timer.
//
// Reading a document first flushes its pending write, so reads always observe
// the latest written state. Writes reach the inner gateway one at a time.
//
// Write errors surface asynchronously: they are logged, remembered in
// LastError, and returned from Flush and Close.
type Debounced struct {
	inner Gateway
	delay time.Duration

	// writeMu serializes writes to the inner gateway.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]*pendingWrite
	closed  bool
	lastErr error
}

// pendingWrite tracks a coalesced write.
type pendingWrite struct {
	timer *time.Timer
	write func() error
}

// NewDebounced creates a debouncing wrapper around inner.
func NewDebounced(inner Gateway, delay time.Duration) *Debounced {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debounced{
		inner:   inner,
		delay:   delay,
		pending: make(map[string]*pendingWrite),
	}
}

// ReadGlobalOverrides implements Gateway.
func (d *Debounced) ReadGlobalOverrides() GlobalOverrides {
	d.fire(DocGlobal)
	return d.inner.ReadGlobalOverrides()
}

// WriteGlobalOverrides implements Gateway.
func (d *Debounced) WriteGlobalOverrides(values map[string]any, initiators map[string]string) error {
	values = override.CloneValues(values)
	initiators = override.CloneStrings(initiators)
	return d.schedule(DocGlobal, func() error {
		return d.inner.WriteGlobalOverrides(values, initiators)
	})
}

// ReadProfileOverrides implements Gateway.
func (d *Debounced) ReadProfileOverrides(name string) map[string]any {
	d.fire(ProfileDoc(name))
	return d.inner.ReadProfileOverrides(name)
}

// WriteProfileOverrides implements Gateway.
func (d *Debounced) WriteProfileOverrides(name string, values map[string]any) error {
	if name == "" {
		return oops.In("persist").Wrapf(ErrInvalidProfile, "empty profile name")
	}
	values = override.CloneValues(values)
	return d.schedule(ProfileDoc(name), func() error {
		return d.inner.WriteProfileOverrides(name, values)
	})
}

// ReadHotkeyState implements Gateway.
func (d *Debounced) ReadHotkeyState() HotkeyState {
	d.fire(DocHotkeys)
	return d.inner.ReadHotkeyState()
}

// WriteHotkeyState implements Gateway.
func (d *Debounced) WriteHotkeyState(entries []hotkey.Entry, initiators map[string]string) error {
	entries = cloneEntries(entries)
	initiators = override.CloneStrings(initiators)
	return d.schedule(DocHotkeys, func() error {
		return d.inner.WriteHotkeyState(entries, initiators)
	})
}

// ReadExtraLines implements Gateway.
func (d *Debounced) ReadExtraLines() []string {
	d.fire(DocExtraLines)
	return d.inner.ReadExtraLines()
}

// WriteExtraLines implements Gateway.
func (d *Debounced) WriteExtraLines(lines []string) error {
	lines = append([]string(nil), lines...)
	return d.schedule(DocExtraLines, func() error {
		return d.inner.WriteExtraLines(lines)
	})
}

// ReadRecommendationState implements Gateway.
func (d *Debounced) ReadRecommendationState() recommend.State {
	d.fire(DocRecommendations)
	return d.inner.ReadRecommendationState()
}

// WriteRecommendationState implements Gateway.
func (d *Debounced) WriteRecommendationState(st recommend.State) error {
	st = cloneState(st)
	return d.schedule(DocRecommendations, func() error {
		return d.inner.WriteRecommendationState(st)
	})
}

// schedule records write as the pending write of doc.
func (d *Debounced) schedule(doc string, write func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return oops.In("persist").With("document", doc).Wrap(ErrClosed)
	}

	if p, ok := d.pending[doc]; ok {
		p.write = write
		p.timer.Reset(d.delay)
		return nil
	}

	d.pending[doc] = &pendingWrite{
		write: write,
		timer: time.AfterFunc(d.delay, func() { d.fire(doc) }),
	}
	return nil
}

// fire runs the pending write of doc, if any. Taking the pending write under
// writeMu keeps writes of one document in submission order.
func (d *Debounced) fire(doc string) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.mu.Lock()
	p, ok := d.pending[doc]
	if ok {
		p.timer.Stop()
		delete(d.pending, doc)
	}
	d.mu.Unlock()

	if !ok {
		return nil
	}

	err := p.write()
	if err != nil {
		log.WithField("document", doc).WithError(err).Error("debounced write failed")
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
	}
	return err
}

// Flush immediately runs every pending write and returns their errors.
func (d *Debounced) Flush() error {
	d.mu.Lock()
	docs := make([]string, 0, len(d.pending))
	for doc := range d.pending {
		docs = append(docs, doc)
	}
	d.mu.Unlock()
	sort.Strings(docs)

	var errs []error
	for _, doc := range docs {
		if err := d.fire(doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending writes. Later writes fail with ErrClosed.
func (d *Debounced) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	return d.Flush()
}

// PendingCount returns the number of documents with a pending write.
func (d *Debounced) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// LastError returns the most recent asynchronous write error.
func (d *Debounced) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

var _ Gateway = (*Debounced)(nil)
