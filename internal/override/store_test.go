package override

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_String(t *testing.T) {
	tests := []struct {
		scope Scope
		want  string
	}{
		{Scope{}, "none"},
		{Global, "global"},
		{Profile("nord"), "profile:nord"},
		{Scope{Kind: ScopeKind(9)}, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.scope.String())
	}
}

func TestStore_IsOverridden(t *testing.T) {
	s := NewStore()
	s.UseProfile("nord", map[string]any{"general:gaps_in": 4})
	s.Set(Global, "decoration:rounding", 8, "")

	assert.True(t, s.IsOverridden("general:gaps_in"), "profile entry counts")
	assert.True(t, s.IsOverridden("decoration:rounding"), "global entry counts")
	assert.False(t, s.IsOverridden("input:kb_layout"))

	// Entries of a profile that is not current do not count.
	s.Set(Profile("other"), "input:kb_layout", "de", "")
	assert.False(t, s.IsOverridden("input:kb_layout"))
}

func TestStore_EffectivePrefersProfile(t *testing.T) {
	s := NewStore()
	s.UseProfile("nord", map[string]any{"general:gaps_in": 4})
	s.Set(Global, "general:gaps_in", 10, "user")
	s.Set(Global, "general:gaps_out", 20, "user")

	val, scope, ok := s.Effective("general:gaps_in")
	require.True(t, ok)
	assert.Equal(t, 4, val)
	assert.Equal(t, Profile("nord"), scope)

	val, scope, ok = s.Effective("general:gaps_out")
	require.True(t, ok)
	assert.Equal(t, 20, val)
	assert.True(t, scope.IsGlobal())

	_, scope, ok = s.Effective("missing")
	assert.False(t, ok)
	assert.True(t, scope.IsNone())
	assert.False(t, scope.IsGlobal())
}

func TestStore_ZeroScopeAddressesNoLayer(t *testing.T) {
	s := NewStore()
	s.UseProfile("nord", nil)

	s.Set(Scope{}, "general:gaps_in", 4, "user")
	assert.False(t, s.IsOverridden("general:gaps_in"))

	_, ok := s.Get(Scope{}, "general:gaps_in")
	assert.False(t, ok)
	assert.False(t, s.Delete(Scope{}, "general:gaps_in"))
}

func TestStore_SetDeleteTracksInitiators(t *testing.T) {
	s := NewStore()
	s.Set(Global, "misc:vfr", true, "recommendation:vfr")

	assert.Equal(t, map[string]string{"misc:vfr": "recommendation:vfr"}, s.GlobalInitiators())

	assert.True(t, s.Delete(Global, "misc:vfr"))
	assert.False(t, s.Delete(Global, "misc:vfr"))
	assert.Empty(t, s.GlobalInitiators())
	assert.Empty(t, s.Global())
}

func TestStore_GlobalReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Set(Global, "nested", map[string]any{"a": 1}, "")

	g := s.Global()
	g["nested"].(map[string]any)["a"] = 2
	g["extra"] = true

	val, _ := s.Get(Global, "nested")
	assert.Equal(t, 1, val.(map[string]any)["a"])
	_, ok := s.Get(Global, "extra")
	assert.False(t, ok)
}

func TestStore_ReplaceGlobal(t *testing.T) {
	s := NewStore()
	s.Set(Global, "a", 1, "x")

	s.ReplaceGlobal(map[string]any{"b": 2}, nil)

	assert.Equal(t, map[string]any{"b": 2}, s.Global())
	assert.Empty(t, s.GlobalInitiators())

	// A nil initiators map must still accept later writes.
	s.Set(Global, "c", 3, "y")
	assert.Equal(t, "y", s.GlobalInitiators()["c"])
}

func TestStore_Lines(t *testing.T) {
	s := NewStore()
	s.AppendLine("windowrulev2 = float, class:pavucontrol")
	s.AppendLine("exec-once = waybar")
	s.AppendLine("windowrulev2 = float, class:pavucontrol")

	assert.Contains(t, s.Lines(), "exec-once = waybar")
	assert.Equal(t, 2, s.RemoveLine("windowrulev2 = float, class:pavucontrol"))
	assert.Equal(t, []string{"exec-once = waybar"}, s.Lines())
	assert.Equal(t, 0, s.RemoveLine("missing"))

	s.ReplaceLines(nil)
	assert.Empty(t, s.Lines())
}

func TestCloneValues_Deep(t *testing.T) {
	src := map[string]any{
		"list": []any{map[string]any{"x": 1}},
		"ints": []int{1, 2},
	}

	dst := CloneValues(src)
	dst["list"].([]any)[0].(map[string]any)["x"] = 9
	dst["ints"].([]int)[0] = 7

	assert.Equal(t, 1, src["list"].([]any)[0].(map[string]any)["x"])
	assert.Equal(t, 1, src["ints"].([]int)[0])
	assert.Nil(t, CloneValues(nil))
	assert.Nil(t, CloneStrings(nil))
}
