// Package notify tells observers that global overrides or hotkeys changed.
//
// Every payload carries the full current state plus the tag of whoever
// emitted it, so a view can refresh from the payload alone and skip events
// it caused itself.
package notify

import (
	"sort"
	"sync"

	"github.com/dshills/hyprtune/internal/hotkey"
)

// Event names a kind of state change.
type Event string

const (
	// EventGlobalOverrides fires when the global parameter layer changes.
	EventGlobalOverrides Event = "global-overrides"

	// EventHotkeys fires when the hotkey overrides change.
	EventHotkeys Event = "hotkeys"
)

// Payload is delivered to observers.
type Payload struct {
	// Event is filled in by Emit.
	Event Event

	// Emitter identifies the component that caused the change.
	Emitter string

	// Params and Initiators hold the global layer for EventGlobalOverrides.
	Params     map[string]any
	Initiators map[string]string

	// Hotkeys and HotkeyInitiators hold the registry for EventHotkeys.
	Hotkeys          []hotkey.Entry
	HotkeyInitiators map[string]string
}

// Observer is called for each delivered payload.
type Observer func(p Payload)

// SkipEmitter wraps obs so payloads emitted by self are ignored.
func SkipEmitter(self string, obs Observer) Observer {
	return func(p Payload) {
		if p.Emitter == self {
			return
		}
		obs(p)
	}
}

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier fans payloads out to subscribed observers.
//
// Thread Safety:
// Notifier is safe for concurrent use. Observers run outside the lock, in
// subscription order.
type Notifier struct {
	mu sync.RWMutex

	// Observers that receive every event
	allObservers map[uint64]Observer

	// Per-event observers
	eventObservers map[Event]map[uint64]Observer

	nextID uint64

	async  bool
	buffer chan Payload
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync delivers payloads from a background goroutine through a buffer
// of the given size.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Payload, bufferSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		allObservers:   make(map[uint64]Observer),
		eventObservers: make(map[Event]map[uint64]Observer),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for every event.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.allObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeEvent registers an observer for a single event.
func (n *Notifier) SubscribeEvent(event Event, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	if n.eventObservers[event] == nil {
		n.eventObservers[event] = make(map[uint64]Observer)
	}
	n.eventObservers[event][id] = observer

	return &Subscription{id: id, notifier: n}
}

// Emit delivers p to the observers of event. Emitting on a closed notifier
// does nothing.
func (n *Notifier) Emit(event Event, p Payload) {
	p.Event = event

	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- p:
		case <-n.done:
		}
		return
	}

	n.deliver(p)
}

// Close shuts down the notifier, draining buffered payloads first.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.allObservers, id)

	for event, observers := range n.eventObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.eventObservers, event)
		}
	}
}

func (n *Notifier) deliver(p Payload) {
	n.mu.RLock()
	matched := make(map[uint64]Observer, len(n.allObservers))
	for id, obs := range n.allObservers {
		matched[id] = obs
	}
	for id, obs := range n.eventObservers[p.Event] {
		matched[id] = obs
	}
	n.mu.RUnlock()

	ids := make([]uint64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		matched[id](p)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case p := <-n.buffer:
			n.deliver(p)
		case <-n.done:
			for {
				select {
				case p := <-n.buffer:
					n.deliver(p)
				default:
					return
				}
			}
		}
	}
}

// Batch collects payloads and delivers them together. A later payload for
// the same event replaces the earlier one, since each carries the full state.
type Batch struct {
	notifier *Notifier

	mu    sync.Mutex
	order []Event
	byEvt map[Event]Payload
}

// NewBatch creates an empty batch.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{
		notifier: n,
		byEvt:    make(map[Event]Payload),
	}
}

// Add queues a payload for event.
func (b *Batch) Add(event Event, p Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byEvt[event]; !ok {
		b.order = append(b.order, event)
	}
	b.byEvt[event] = p
}

// Commit emits the queued payloads in first-added order and empties the batch.
func (b *Batch) Commit() {
	b.mu.Lock()
	order, byEvt := b.order, b.byEvt
	b.order = nil
	b.byEvt = make(map[Event]Payload)
	b.mu.Unlock()

	for _, event := range order {
		b.notifier.Emit(event, byEvt[event])
	}
}

// Discard drops the queued payloads.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.order = nil
	b.byEvt = make(map[Event]Payload)
}

// Len returns the number of queued events.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
