package engine

import (
	"sort"

	"github.com/dshills/hyprtune/internal/catalog"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/recommend"
)

// IsParameterOverridden reports whether path has an entry in the current
// profile's layer or in the global layer.
func (e *Engine) IsParameterOverridden(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.IsOverridden(path)
}

// IsRecommendationApplied reports whether rec is currently applied.
func (e *Engine) IsRecommendationApplied(rec recommend.Recommendation) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isApplied(rec)
}

// IsApplied is IsRecommendationApplied by id. Unknown ids are not applied.
func (e *Engine) IsApplied(id string) bool {
	rec, ok := e.catalog.Recommendation(id)
	if !ok {
		return false
	}
	return e.IsRecommendationApplied(rec)
}

func (e *Engine) isApplied(rec recommend.Recommendation) bool {
	id := rec.Info().ID

	switch r := rec.(type) {
	case *recommend.Param:
		if e.tracker.Applied(id) {
			return true
		}
		_, ok := e.store.Get(override.Global, r.ParamPath)
		return ok
	case *recommend.Keybind:
		return e.tracker.Applied(id) || e.hotkeys.HasGlobalTarget(r.Target())
	case *recommend.WorkspaceRule:
		return e.tracker.HasWorkspaces(id)
	default:
		// Rule and unknown kinds are tracked by their flag alone.
		return e.tracker.Applied(id)
	}
}

// SortedParameters returns the catalog parameters with overridden ones
// first. Each partition is ordered by descending popularity; ties keep
// catalog order. The result reflects the override state at call time.
func (e *Engine) SortedParameters() []catalog.Parameter {
	e.mu.Lock()
	defer e.mu.Unlock()

	params := append([]catalog.Parameter(nil), e.catalog.Parameters()...)
	overridden := make(map[string]bool, len(params))
	for _, p := range params {
		overridden[p.Path] = e.store.IsOverridden(p.Path)
	}

	sort.SliceStable(params, func(i, j int) bool {
		oi, oj := overridden[params[i].Path], overridden[params[j].Path]
		if oi != oj {
			return oi
		}
		return params[i].Popularity > params[j].Popularity
	})
	return params
}

// EffectiveValue returns the value shown for path: the current profile's
// entry, else the global entry, else the catalog default. Defaults come with
// the zero Scope, which reports IsNone.
func (e *Engine) EffectiveValue(path string) (value any, scope override.Scope, overridden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if val, sc, ok := e.store.Effective(path); ok {
		return override.CloneValue(val), sc, true
	}
	for _, p := range e.catalog.Parameters() {
		if p.Path == path {
			return override.CloneValue(p.Default), override.Scope{}, false
		}
	}
	return nil, override.Scope{}, false
}

// AppliedWorkspaces returns the reconciled workspace selection of a
// workspace rule, or nil.
func (e *Engine) AppliedWorkspaces(id string) []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.tracker.HasWorkspaces(id) {
		return nil
	}
	return e.tracker.Workspaces(id)
}

// Category groups the recommendations of one category.
type Category struct {
	Name            string
	Recommendations []recommend.Recommendation
}

// RecommendationsByCategory groups the catalog recommendations by category,
// in order of first appearance.
func (e *Engine) RecommendationsByCategory() []Category {
	var groups []Category
	index := make(map[string]int)

	for _, rec := range e.catalog.Recommendations() {
		name := rec.Info().Category
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Category{Name: name})
		}
		groups[i].Recommendations = append(groups[i].Recommendations, rec)
	}
	return groups
}
