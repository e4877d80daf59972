package catalog

import (
	"math"
	"strings"

	"github.com/samber/oops"

	"github.com/dshills/hyprtune/internal/logging"
	"github.com/dshills/hyprtune/internal/recommend"
)

var log = logging.For("catalog")

// parseDocument builds a catalog from a decoded document of the form
//
//	parameters:      [{path, popularity, default, category}]
//	recommendations: [{id, type, category, title, description, dependents, ...}]
//
// Both YAML and Lua sources decode into this shape first.
func parseDocument(source string, data map[string]any) (*Static, error) {
	var params []Parameter
	if list, ok := data["parameters"].([]any); ok {
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, invalid(source, "parameters[%d] is not a table", i)
			}
			p, err := parseParameter(source, m)
			if err != nil {
				return nil, err
			}
			params = append(params, p)
		}
	}

	var recs []recommend.Recommendation
	if list, ok := data["recommendations"].([]any); ok {
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, invalid(source, "recommendations[%d] is not a table", i)
			}
			r, err := parseRecommendation(source, m)
			if err != nil {
				return nil, err
			}
			recs = append(recs, r)
		}
	}

	c, err := New(params, recs)
	if err != nil {
		return nil, oops.In("catalog").With("source", source).Wrap(err)
	}
	return c, nil
}

func parseParameter(source string, m map[string]any) (Parameter, error) {
	p := Parameter{
		Path:     stringField(m, "path"),
		Category: stringField(m, "category"),
		Default:  m["default"],
	}
	if p.Path == "" {
		return p, invalid(source, "parameter without path")
	}
	if pop, ok := intField(m, "popularity"); ok {
		p.Popularity = pop
	}
	return p, nil
}

func parseRecommendation(source string, m map[string]any) (recommend.Recommendation, error) {
	meta := recommend.Meta{
		ID:          stringField(m, "id"),
		Category:    stringField(m, "category"),
		Title:       stringField(m, "title"),
		Description: stringField(m, "description"),
		Dependents:  stringList(m["dependents"]),
	}
	if meta.ID == "" {
		return nil, invalid(source, "recommendation without id")
	}

	kind := recommend.Kind(stringField(m, "type"))
	switch kind {
	case recommend.KindParam:
		path := stringField(m, "param")
		if path == "" {
			return nil, invalid(source, "param recommendation %q has no param path", meta.ID)
		}
		if m["value"] == nil {
			return nil, invalid(source, "param recommendation %q has no value", meta.ID)
		}
		return &recommend.Param{Meta: meta, ParamPath: path, DefaultValue: m["value"]}, nil

	case recommend.KindKeybind:
		k := &recommend.Keybind{
			Meta:       meta,
			Modifiers:  stringList(m["modifiers"]),
			Key:        stringField(m, "key"),
			BindType:   recommend.BindType(stringField(m, "bind_type")),
			Dispatcher: stringField(m, "dispatcher"),
			Args:       stringField(m, "args"),
		}
		if k.BindType == "" {
			k.BindType = recommend.BindNormal
		}
		if !k.BindType.Valid() {
			return nil, invalid(source, "keybind %q has unknown bind type %q", meta.ID, k.BindType)
		}
		if k.Key == "" || k.Dispatcher == "" {
			return nil, invalid(source, "keybind %q needs key and dispatcher", meta.ID)
		}
		return k, nil

	case recommend.KindRule:
		line := stringField(m, "line")
		if line == "" {
			return nil, invalid(source, "rule %q has no line", meta.ID)
		}
		return &recommend.Rule{Meta: meta, RuleLine: line}, nil

	case recommend.KindWorkspaceRule:
		tmpl := stringField(m, "template")
		if !strings.Contains(tmpl, recommend.WorkspacePlaceholder) {
			return nil, invalid(source, "workspace rule %q template lacks %s", meta.ID, recommend.WorkspacePlaceholder)
		}
		ws, err := intList(m["workspaces"])
		if err != nil {
			return nil, invalid(source, "workspace rule %q: %v", meta.ID, err)
		}
		return &recommend.WorkspaceRule{Meta: meta, RuleTemplate: tmpl, Workspaces: ws}, nil

	default:
		log.WithField("source", source).WithField("id", meta.ID).WithField("type", string(kind)).
			Warn("unknown recommendation type, keeping as inert entry")
		return &recommend.Unknown{Meta: meta, Type: string(kind)}, nil
	}
}

func invalid(source, format string, args ...any) error {
	return oops.In("catalog").With("source", source).Wrapf(ErrInvalidDefinition, format, args...)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func intField(m map[string]any, key string) (int, bool) {
	return toInt(m[key])
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if list == "" {
			return nil
		}
		return []string{list}
	default:
		return nil
	}
}

func intList(v any) ([]int, error) {
	list, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		if ints, ok := v.([]int); ok {
			return append([]int(nil), ints...), nil
		}
		return nil, oops.Errorf("workspaces must be a list of integers")
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := toInt(item)
		if !ok {
			return nil, oops.Errorf("workspace %v is not an integer", item)
		}
		out = append(out, n)
	}
	return out, nil
}

// toInt accepts the integer shapes produced by yaml.v3, go-toml and Lua.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
