package engine

import (
	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/recommend"
)

// SetWorkspaces reconciles a workspace rule with selection: every line the
// rule can materialize is removed, then one line per selected workspace is
// added. An empty selection leaves the rule not applied. Workspaces the rule
// does not offer are rejected.
func (e *Engine) SetWorkspaces(id string, selection []int) error {
	e.mu.Lock()
	defer e.unlock()

	rule, err := e.workspaceRule(id)
	if err != nil {
		return err
	}
	for _, ws := range selection {
		if !rule.Offers(ws) {
			return oops.In("engine").With("id", id).With("workspace", ws).
				Wrapf(ErrWorkspaceNotOffered, "workspace %d", ws)
		}
	}

	var c changes
	e.reconcileWorkspaces(rule, selection, &c)
	return e.commit(&c)
}

// ToggleWorkspace flips ws in the current selection of a workspace rule and
// reconciles the rule with the result.
func (e *Engine) ToggleWorkspace(id string, ws int) error {
	e.mu.Lock()
	defer e.unlock()

	rule, err := e.workspaceRule(id)
	if err != nil {
		return err
	}
	if !rule.Offers(ws) {
		return oops.In("engine").With("id", id).With("workspace", ws).
			Wrapf(ErrWorkspaceNotOffered, "workspace %d", ws)
	}

	current := e.tracker.Workspaces(id)
	selection := make([]int, 0, len(current)+1)
	found := false
	for _, s := range current {
		if s == ws {
			found = true
			continue
		}
		selection = append(selection, s)
	}
	if !found {
		selection = append(selection, ws)
	}

	var c changes
	e.reconcileWorkspaces(rule, selection, &c)
	return e.commit(&c)
}

func (e *Engine) workspaceRule(id string) (*recommend.WorkspaceRule, error) {
	rec, ok := e.catalog.Recommendation(id)
	if !ok {
		return nil, oops.In("engine").With("id", id).Wrapf(ErrUnknownRecommendation, "recommendation %q", id)
	}
	rule, ok := rec.(*recommend.WorkspaceRule)
	if !ok {
		return nil, oops.In("engine").With("id", id).Wrapf(ErrNotWorkspaceRule, "recommendation %q", id)
	}
	return rule, nil
}

// reconcileWorkspaces makes the materialized lines of rule equal selection.
// Lines are added in the rule's workspace order; selected workspaces the
// rule does not offer are ignored.
func (e *Engine) reconcileWorkspaces(rule *recommend.WorkspaceRule, selection []int, c *changes) {
	for _, ws := range rule.Workspaces {
		e.store.RemoveLine(rule.Line(ws))
	}

	chosen := make(map[int]bool, len(selection))
	for _, ws := range selection {
		chosen[ws] = true
	}

	var applied []int
	for _, ws := range rule.Workspaces {
		if !chosen[ws] {
			continue
		}
		// Catalogs may list a workspace twice.
		delete(chosen, ws)
		e.store.AppendLine(rule.Line(ws))
		applied = append(applied, ws)
	}

	if len(applied) > 0 {
		e.tracker.SetWorkspaces(rule.ID, applied)
		e.tracker.SetApplied(rule.ID, true)
	} else {
		e.tracker.Forget(rule.ID)
	}
	c.lines = true
	c.state = true

	log.WithField("id", rule.ID).WithField("workspaces", applied).Debug("workspace rules reconciled")
}
