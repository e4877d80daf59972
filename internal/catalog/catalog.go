// Package catalog provides the known parameters and recommendations.
//
// Catalogs are pure data. The engine only depends on the Catalog interface,
// so definitions can come from the embedded built-in YAML, user YAML files or
// Lua scripts without touching the engine.
package catalog

import (
	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/recommend"
)

// Parameter is a compositor setting the user can override.
type Parameter struct {
	Path       string
	Popularity int
	Default    any
	Category   string
}

// Catalog is the read-only view the engine consumes.
type Catalog interface {
	// Parameters returns all parameters in catalog order.
	Parameters() []Parameter
	// Recommendations returns all recommendations in catalog order.
	Recommendations() []recommend.Recommendation
	// Recommendation looks up a recommendation by id.
	Recommendation(id string) (recommend.Recommendation, bool)
}

// Static is an in-memory Catalog.
type Static struct {
	params []Parameter
	recs   []recommend.Recommendation
	byID   map[string]recommend.Recommendation
}

// New builds a Static catalog. Recommendation ids must be unique and non-empty.
func New(params []Parameter, recs []recommend.Recommendation) (*Static, error) {
	c := &Static{
		params: append([]Parameter(nil), params...),
		recs:   make([]recommend.Recommendation, 0, len(recs)),
		byID:   make(map[string]recommend.Recommendation, len(recs)),
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Path == "" {
			return nil, oops.In("catalog").Wrapf(ErrInvalidDefinition, "parameter without path")
		}
		if seen[p.Path] {
			return nil, oops.In("catalog").With("path", p.Path).Wrapf(ErrDuplicateParameter, "parameter %q", p.Path)
		}
		seen[p.Path] = true
	}

	for _, r := range recs {
		id := r.Info().ID
		if id == "" {
			return nil, oops.In("catalog").Wrapf(ErrInvalidDefinition, "recommendation without id")
		}
		if _, dup := c.byID[id]; dup {
			return nil, oops.In("catalog").With("id", id).Wrapf(ErrDuplicateRecommendation, "recommendation %q", id)
		}
		c.byID[id] = r
		c.recs = append(c.recs, r)
	}

	return c, nil
}

// Parameters implements Catalog.
func (c *Static) Parameters() []Parameter {
	return append([]Parameter(nil), c.params...)
}

// Recommendations implements Catalog.
func (c *Static) Recommendations() []recommend.Recommendation {
	return append([]recommend.Recommendation(nil), c.recs...)
}

// Recommendation implements Catalog.
func (c *Static) Recommendation(id string) (recommend.Recommendation, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Merge combines catalogs in order. A later parameter or recommendation with
// the same path or id replaces the earlier one in place.
func Merge(catalogs ...Catalog) (*Static, error) {
	var params []Parameter
	paramIdx := make(map[string]int)
	var recs []recommend.Recommendation
	recIdx := make(map[string]int)

	for _, c := range catalogs {
		if c == nil {
			continue
		}
		for _, p := range c.Parameters() {
			if i, ok := paramIdx[p.Path]; ok {
				params[i] = p
				continue
			}
			paramIdx[p.Path] = len(params)
			params = append(params, p)
		}
		for _, r := range c.Recommendations() {
			id := r.Info().ID
			if i, ok := recIdx[id]; ok {
				recs[i] = r
				continue
			}
			recIdx[id] = len(recs)
			recs = append(recs, r)
		}
	}

	return New(params, recs)
}
