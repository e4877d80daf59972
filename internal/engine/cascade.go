package engine

import (
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/recommend"
)

// Apply applies the recommendation id and, transitively, its dependents.
// Each recommendation is visited at most once per call, so dependency cycles
// terminate. Dependents missing from the catalog are skipped. Touched
// documents are persisted once after the whole cascade.
func (e *Engine) Apply(id string) error {
	e.mu.Lock()
	defer e.unlock()

	rec, ok := e.catalog.Recommendation(id)
	if !ok {
		return oops.In("engine").With("id", id).Wrapf(ErrUnknownRecommendation, "apply %q", id)
	}

	var c changes
	e.cascade(rec, make(map[string]bool), &c, e.applyOne)
	return e.commit(&c)
}

// Revert reverts the recommendation id and, transitively, its dependents.
func (e *Engine) Revert(id string) error {
	e.mu.Lock()
	defer e.unlock()

	rec, ok := e.catalog.Recommendation(id)
	if !ok {
		return oops.In("engine").With("id", id).Wrapf(ErrUnknownRecommendation, "revert %q", id)
	}

	var c changes
	e.cascade(rec, make(map[string]bool), &c, e.revertOne)
	return e.commit(&c)
}

// cascade runs step on rec and then on each resolvable dependent.
func (e *Engine) cascade(rec recommend.Recommendation, visited map[string]bool, c *changes,
	step func(recommend.Recommendation, *changes)) {
	meta := rec.Info()
	if visited[meta.ID] {
		return
	}
	visited[meta.ID] = true

	step(rec, c)

	for _, dep := range meta.Dependents {
		next, ok := e.catalog.Recommendation(dep)
		if !ok {
			log.WithFields(logrus.Fields{"id": meta.ID, "dependent": dep}).
				Warn("skipping dependent missing from catalog")
			continue
		}
		e.cascade(next, visited, c, step)
	}
}

// applyOne sets the flag of rec and performs its effect.
func (e *Engine) applyOne(rec recommend.Recommendation, c *changes) {
	id := rec.Info().ID
	e.tracker.SetApplied(id, true)
	c.state = true

	switch r := rec.(type) {
	case *recommend.Param:
		e.store.Set(override.Global, r.ParamPath, override.CloneValue(r.DefaultValue), RecommendationInitiator(id))
		c.global = true

	case *recommend.Keybind:
		entry := hotkey.Entry{
			ID:            e.ids.NewID(),
			Dispatcher:    r.Dispatcher,
			Args:          r.Args,
			Action:        hotkey.ActionAdd,
			IsGlobal:      true,
			IsRecommended: true,
			Metadata: hotkey.Metadata{
				Modifiers: append([]string(nil), r.Modifiers...),
				Key:       r.Key,
				BindType:  string(r.BindType),
			},
			Timestamp: e.now(),
		}
		if err := e.hotkeys.Add(entry, RecommendationInitiator(id)); err != nil {
			log.WithField("id", id).WithError(err).Error("cannot register hotkey")
			return
		}
		c.hotkeys = true

	case *recommend.Rule:
		e.store.AppendLine(r.RuleLine)
		c.lines = true

	case *recommend.WorkspaceRule:
		selection := e.tracker.Workspaces(id)
		if len(selection) == 0 {
			selection = r.Workspaces
		}
		e.reconcileWorkspaces(r, selection, c)

	default:
		log.WithFields(logrus.Fields{"id": id, "kind": string(rec.Kind())}).
			Warn("no apply effect for unknown recommendation kind")
	}

	log.WithField("id", id).Debug("applied")
}

// revertOne clears the flag of rec and undoes its effect.
func (e *Engine) revertOne(rec recommend.Recommendation, c *changes) {
	id := rec.Info().ID
	e.tracker.SetApplied(id, false)
	c.state = true

	switch r := rec.(type) {
	case *recommend.Param:
		e.store.Delete(override.Global, r.ParamPath)
		c.global = true

	case *recommend.Keybind:
		removed := e.hotkeys.RemoveTarget(r.Target())
		log.WithField("id", id).WithField("removed", len(removed)).Debug("hotkeys removed")
		c.hotkeys = true

	case *recommend.Rule:
		e.store.RemoveLine(r.RuleLine)
		c.lines = true

	case *recommend.WorkspaceRule:
		e.reconcileWorkspaces(r, nil, c)

	default:
		log.WithFields(logrus.Fields{"id": id, "kind": string(rec.Kind())}).
			Warn("no revert effect for unknown recommendation kind")
	}

	log.WithField("id", id).Debug("reverted")
}
