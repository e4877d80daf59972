// Package engine resolves layered overrides and applies recommendations.
//
// The Engine owns the override store, the hotkey registry and the
// recommendation tracker. Every mutating operation runs to completion under
// one lock, writes each document it touched exactly once through the
// persistence gateway, and then notifies observers.
//
// # Basic Usage
//
//	cat, _ := catalog.Load()
//	e := engine.New(cat, persist.NewFileGateway(dir), engine.WithProfile("nord"))
//
//	if err := e.Apply("mouse_movewindow"); err != nil {
//		// the change is live in memory, but was not saved
//	}
//
// # DIG Sessions
//
// A Session groups duplicate-to-global actions so they can be rolled back
// together when the user cancels:
//
//	s, _ := e.OpenSession()
//	_ = s.DigParameter("general:gaps_in")
//	_, _ = s.Close(engine.CloseCancel, askUser)
package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/catalog"
	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/logging"
	"github.com/dshills/hyprtune/internal/notify"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/persist"
	"github.com/dshills/hyprtune/internal/recommend"
)

var log = logging.For("engine")

// Initiator tags recorded for global overrides and hotkeys.
const (
	// InitiatorUser marks entries edited directly.
	InitiatorUser = "user"

	initiatorRecommendationPrefix = "recommendation:"
)

// DefaultEmitter tags notifications when WithEmitter is not used.
const DefaultEmitter = "hyprtune"

// ExternalEmitter tags notifications caused by documents changed outside
// this engine.
const ExternalEmitter = "external"

// RecommendationInitiator returns the initiator recorded for changes made
// by applying the recommendation id.
func RecommendationInitiator(id string) string {
	return initiatorRecommendationPrefix + id
}

// Engine is the facade over the override layers, hotkeys and
// recommendation state.
//
// Thread Safety:
// All methods are safe for concurrent use; they are serialized by a mutex.
type Engine struct {
	mu sync.Mutex

	catalog  catalog.Catalog
	gateway  persist.Gateway
	store    *override.Store
	hotkeys  *hotkey.Registry
	tracker  *recommend.Tracker
	notifier *notify.Notifier

	ids     hotkey.IDGenerator
	now     func() time.Time
	emitter string
	profile string

	session *Session

	// pending holds notifications delivered once the lock is released.
	pending *notify.Batch
}

// Option configures an Engine during creation.
type Option func(*Engine)

// WithIDGenerator sets the generator of hotkey entry ids.
func WithIDGenerator(g hotkey.IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithClock sets the time source for hotkey timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithNotifier sets the notifier that receives change payloads.
func WithNotifier(n *notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithEmitter sets the emitter tag of notifications caused by this engine.
func WithEmitter(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.emitter = name
		}
	}
}

// WithProfile selects the current profile loaded at start.
func WithProfile(name string) Option {
	return func(e *Engine) {
		e.profile = name
	}
}

// New creates an engine over cat and loads the persisted state from gw.
func New(cat catalog.Catalog, gw persist.Gateway, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		gateway: gw,
		store:   override.NewStore(),
		hotkeys: hotkey.NewRegistry(),
		tracker: recommend.NewTracker(),
		ids:     hotkey.UUIDGenerator{},
		now:     time.Now,
		emitter: DefaultEmitter,
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = notify.New()
	}

	e.load()
	return e
}

// Catalog returns the catalog the engine resolves against.
func (e *Engine) Catalog() catalog.Catalog {
	return e.catalog
}

// Notifier returns the notifier observers subscribe to.
func (e *Engine) Notifier() *notify.Notifier {
	return e.notifier
}

// Emitter returns the tag this engine puts on its notifications.
func (e *Engine) Emitter() string {
	return e.emitter
}

// CurrentProfile returns the active profile name.
func (e *Engine) CurrentProfile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.CurrentProfile()
}

// GlobalOverrides returns copies of the global layer and its initiators.
func (e *Engine) GlobalOverrides() (map[string]any, map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Global(), e.store.GlobalInitiators()
}

// ProfileOverrides returns a copy of the current profile's layer.
func (e *Engine) ProfileOverrides() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ProfileValues(e.store.CurrentProfile())
}

// Hotkeys returns the hotkey entries in insertion order and their initiators.
func (e *Engine) Hotkeys() ([]hotkey.Entry, map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hotkeys.Entries(), e.hotkeys.Initiators()
}

// ExtraLines returns the raw config lines.
func (e *Engine) ExtraLines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Lines()
}

// StateKeys returns the tracker's bookkeeping keys.
func (e *Engine) StateKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Keys()
}

// load replaces all in-memory state with the persisted documents.
func (e *Engine) load() {
	global := e.gateway.ReadGlobalOverrides()
	e.store.ReplaceGlobal(global.Values, global.Initiators)

	if e.profile != "" {
		e.store.UseProfile(e.profile, e.gateway.ReadProfileOverrides(e.profile))
	}

	hk := e.gateway.ReadHotkeyState()
	e.hotkeys.Replace(hk.Entries, hk.Initiators)

	e.store.ReplaceLines(e.gateway.ReadExtraLines())
	e.tracker.Load(e.gateway.ReadRecommendationState())
	e.deriveFlags()

	log.WithField("profile", e.profile).
		WithField("global", len(global.Values)).
		WithField("hotkeys", e.hotkeys.Len()).
		Debug("state loaded")
}

// deriveFlags recomputes the flags of Param and Keybind recommendations from
// the global layer and the hotkey registry.
func (e *Engine) deriveFlags() {
	for _, rec := range e.catalog.Recommendations() {
		switch r := rec.(type) {
		case *recommend.Param:
			_, ok := e.store.Get(override.Global, r.ParamPath)
			e.tracker.SetApplied(r.ID, ok)
		case *recommend.Keybind:
			e.tracker.SetApplied(r.ID, e.hotkeys.HasGlobalTarget(r.Target()))
		}
	}
}

// changes records which documents an operation touched.
type changes struct {
	global   bool
	hotkeys  bool
	lines    bool
	state    bool
	profiles map[string]bool
}

func (c *changes) profile(name string) {
	if c.profiles == nil {
		c.profiles = make(map[string]bool)
	}
	c.profiles[name] = true
}

func (c *changes) empty() bool {
	return !c.global && !c.hotkeys && !c.lines && !c.state && len(c.profiles) == 0
}

// commit writes every touched document once and notifies observers of
// global and hotkey changes. Write failures are logged and returned; memory
// stays authoritative.
func (e *Engine) commit(c *changes) error {
	if c.empty() {
		return nil
	}

	var failed []string
	var errs []error
	write := func(doc string, fn func() error) {
		if err := fn(); err != nil {
			log.WithField("document", doc).WithError(err).Error("persisting document failed")
			failed = append(failed, doc)
			errs = append(errs, err)
		}
	}

	if c.global {
		write(persist.DocGlobal, func() error {
			return e.gateway.WriteGlobalOverrides(e.store.Global(), e.store.GlobalInitiators())
		})
	}
	if c.hotkeys {
		write(persist.DocHotkeys, func() error {
			return e.gateway.WriteHotkeyState(e.hotkeys.Entries(), e.hotkeys.Initiators())
		})
	}
	if c.lines {
		write(persist.DocExtraLines, func() error {
			return e.gateway.WriteExtraLines(e.store.Lines())
		})
	}
	if c.state {
		write(persist.DocRecommendations, func() error {
			return e.gateway.WriteRecommendationState(e.tracker.State())
		})
	}
	profiles := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	for _, name := range profiles {
		write(persist.ProfileDoc(name), func() error {
			return e.gateway.WriteProfileOverrides(name, e.store.ProfileValues(name))
		})
	}

	e.emit(c.global, c.hotkeys, e.emitter)

	if len(errs) > 0 {
		return oops.In("engine").With("documents", failed).Wrapf(errors.Join(errs...), "saving changes")
	}
	return nil
}

// emit queues notifications carrying the full current state. They are
// delivered by unlock, so observers may call back into the engine.
func (e *Engine) emit(global, hotkeys bool, emitter string) {
	if !global && !hotkeys {
		return
	}
	if e.pending == nil {
		e.pending = e.notifier.NewBatch()
	}
	if global {
		e.pending.Add(notify.EventGlobalOverrides, notify.Payload{
			Emitter:    emitter,
			Params:     e.store.Global(),
			Initiators: e.store.GlobalInitiators(),
		})
	}
	if hotkeys {
		e.pending.Add(notify.EventHotkeys, notify.Payload{
			Emitter:          emitter,
			Hotkeys:          e.hotkeys.Entries(),
			HotkeyInitiators: e.hotkeys.Initiators(),
		})
	}
}

// unlock releases the engine lock and then delivers queued notifications.
func (e *Engine) unlock() {
	batch := e.pending
	e.pending = nil
	e.mu.Unlock()

	if batch != nil {
		batch.Commit()
	}
}
