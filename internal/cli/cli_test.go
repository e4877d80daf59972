package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/hyprtune/internal/engine"
	"github.com/dshills/hyprtune/internal/persist"
)

// newStateDir isolates the config lookup and returns an empty state directory.
func newStateDir(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".state"))
	for _, key := range []string{"STATE_DIR", "PROFILE", "CATALOGS", "PERSIST_DEBOUNCE", "LOG_LEVEL", "EMITTER"} {
		t.Setenv("HYPRTUNE_"+key, "")
	}
	return filepath.Join(home, "state")
}

// run executes the command line against dir with stdin as input.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append([]string{"--state-dir", dir}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))

	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestApplyAndRevert(t *testing.T) {
	dir := newStateDir(t)

	out := mustRun(t, dir, "apply", "mouse_movewindow")
	assert.Contains(t, out, "applied mouse_movewindow")
	assert.Contains(t, out, "with mouse_resizewindow")

	out = mustRun(t, dir, "recs", "--applied")
	assert.Contains(t, out, "mouse_movewindow")
	assert.Contains(t, out, "mouse_resizewindow")
	assert.NotContains(t, out, "natural_scroll")

	out = mustRun(t, dir, "hotkeys")
	assert.Contains(t, out, "bindm:SUPER:mouse:272")
	assert.Contains(t, out, "bindm:SUPER:mouse:273")

	gw := persist.NewFileGateway(dir)
	assert.Len(t, gw.ReadHotkeyState().Entries, 2)

	mustRun(t, dir, "revert", "mouse_movewindow")
	assert.Empty(t, gw.ReadHotkeyState().Entries)

	out = mustRun(t, dir, "recs", "--applied")
	assert.NotContains(t, out, "mouse_movewindow")
}

func TestApply_UnknownRecommendation(t *testing.T) {
	dir := newStateDir(t)

	_, err := run(t, dir, "", "apply", "does_not_exist")
	assert.ErrorIs(t, err, engine.ErrUnknownRecommendation)
}

func TestSetAndUnset(t *testing.T) {
	dir := newStateDir(t)

	mustRun(t, dir, "set", "general:gaps_in", "4")

	gw := persist.NewFileGateway(dir)
	assert.Equal(t, 4, gw.ReadGlobalOverrides().Values["general:gaps_in"])

	out := mustRun(t, dir, "params", "--overridden")
	assert.Contains(t, out, "general:gaps_in")
	assert.Contains(t, out, "global")
	assert.NotContains(t, out, "general:gaps_out")

	mustRun(t, dir, "unset", "general:gaps_in")
	assert.NotContains(t, gw.ReadGlobalOverrides().Values, "general:gaps_in")
}

func TestSet_ProfileLayer(t *testing.T) {
	dir := newStateDir(t)

	_, err := run(t, dir, "", "set", "--layer", "profile", "general:gaps_in", "4")
	assert.ErrorIs(t, err, engine.ErrNoProfile)

	mustRun(t, dir, "-p", "nord", "set", "--layer", "profile", "decoration:rounding", "12")
	gw := persist.NewFileGateway(dir)
	assert.Equal(t, map[string]any{"decoration:rounding": 12}, gw.ReadProfileOverrides("nord"))

	out := mustRun(t, dir, "profile", "nord")
	assert.Contains(t, out, "decoration:rounding")
	assert.Contains(t, out, "12")

	out = mustRun(t, dir, "-p", "nord", "params", "--overridden")
	assert.Contains(t, out, "profile:nord")

	_, err = run(t, dir, "", "set", "--layer", "system", "general:gaps_in", "4")
	assert.Error(t, err)
}

func TestWorkspaces(t *testing.T) {
	dir := newStateDir(t)
	gw := persist.NewFileGateway(dir)

	out := mustRun(t, dir, "workspaces", "workspace_float_all", "--set", "3,1")
	assert.Contains(t, out, "windowrulev2 = float, workspace:5")
	assert.Equal(t, []string{
		"windowrulev2 = float, workspace:1",
		"windowrulev2 = float, workspace:3",
	}, gw.ReadExtraLines())

	mustRun(t, dir, "workspaces", "workspace_float_all", "--toggle", "3")
	assert.Equal(t, []string{"windowrulev2 = float, workspace:1"}, gw.ReadExtraLines())

	_, err := run(t, dir, "", "workspaces", "workspace_float_all", "--toggle", "9")
	assert.ErrorIs(t, err, engine.ErrWorkspaceNotOffered)

	_, err = run(t, dir, "", "workspaces", "natural_scroll")
	assert.ErrorIs(t, err, engine.ErrNotWorkspaceRule)

	mustRun(t, dir, "workspaces", "workspace_float_all", "--clear")
	assert.Empty(t, gw.ReadExtraLines())
}

func TestHotkeyAddAndRemove(t *testing.T) {
	dir := newStateDir(t)

	out := mustRun(t, dir, "hotkeys", "add", "exec", "--mods", "SUPER", "--key", "D", "--args", "wofi", "--global")
	assert.Contains(t, out, "bind:SUPER:D")

	entries := persist.NewFileGateway(dir).ReadHotkeyState().Entries
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsGlobal)

	_, err := run(t, dir, "", "hotkeys", "add", "exec", "--key", "D", "--bind", "bindx", "--global")
	assert.Error(t, err)

	mustRun(t, dir, "hotkeys", "rm", entries[0].ID)
	assert.Empty(t, persist.NewFileGateway(dir).ReadHotkeyState().Entries)

	_, err = run(t, dir, "", "hotkeys", "rm", entries[0].ID)
	assert.ErrorIs(t, err, engine.ErrUnknownHotkey)
}

func TestDig(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		flags    []string
		wantKept bool
	}{
		{"answer yes rolls back", "y\n", nil, false},
		{"answer no keeps", "n\n", nil, true},
		{"end of input keeps", "", nil, true},
		{"keep flag", "", []string{"--keep"}, true},
		{"rollback flag", "", []string{"--rollback"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newStateDir(t)
			mustRun(t, dir, "-p", "nord", "set", "--layer", "profile", "general:gaps_in", "4")

			args := append([]string{"-p", "nord", "dig", "general:gaps_in"}, tt.flags...)
			out, err := run(t, dir, tt.stdin, args...)
			require.NoError(t, err, out)
			assert.Contains(t, out, "promoted general:gaps_in")

			values := persist.NewFileGateway(dir).ReadGlobalOverrides().Values
			if tt.wantKept {
				assert.Equal(t, 4, values["general:gaps_in"])
				assert.Contains(t, out, "kept")
			} else {
				assert.NotContains(t, values, "general:gaps_in")
				assert.Contains(t, out, "rolled back")
			}
		})
	}
}

func TestDig_RequiresTargets(t *testing.T) {
	dir := newStateDir(t)

	_, err := run(t, dir, "", "-p", "nord", "dig")
	assert.Error(t, err)

	_, err = run(t, dir, "", "dig", "--all", "--keep")
	assert.ErrorIs(t, err, engine.ErrNoProfile)
}

func TestWatch_StopsWhenCanceled(t *testing.T) {
	dir := newStateDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs([]string{"--state-dir", dir, "watch", "--buffer", "4"})
	root.SetOut(&out)
	root.SetErr(&out)

	require.NoError(t, root.ExecuteContext(ctx), out.String())
	assert.Contains(t, out.String(), "watching")
	assert.DirExists(t, filepath.Join(dir, "profiles"))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    any
		wantErr bool
	}{
		{"4", 4, false},
		{"1.5", 1.5, false},
		{"true", true, false},
		{"dwindle", "dwindle", false},
		{`"4"`, "4", false},
		{"", "", false},
		{"[1, 2]", nil, true},
		{"{a: 1}", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseValue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAskYesNo(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, askYesNo(strings.NewReader("Yes\n"), &out, "Roll back?"))
	assert.True(t, askYesNo(strings.NewReader("y"), &out, "Roll back?"))
	assert.False(t, askYesNo(strings.NewReader("\n"), &out, "Roll back?"))
	assert.False(t, askYesNo(strings.NewReader(""), &out, "Roll back?"))
	assert.Contains(t, out.String(), "[y/N]")
}
