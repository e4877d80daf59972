package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/recommend"
)

func sampleEntry() hotkey.Entry {
	return hotkey.Entry{
		ID:            "hk1",
		Dispatcher:    "movewindow",
		Action:        hotkey.ActionAdd,
		IsGlobal:      true,
		IsRecommended: true,
		Metadata: hotkey.Metadata{
			Modifiers: []string{"SUPER"},
			Key:       "mouse:272",
			BindType:  "bindm",
		},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFileGateway_MissingDocumentsReadEmpty(t *testing.T) {
	g := NewFileGateway(filepath.Join(t.TempDir(), "state"))

	global := g.ReadGlobalOverrides()
	assert.Empty(t, global.Values)
	assert.NotNil(t, global.Values)
	assert.NotNil(t, global.Initiators)

	assert.Empty(t, g.ReadProfileOverrides("nord"))
	assert.Empty(t, g.ReadHotkeyState().Entries)
	assert.Empty(t, g.ReadExtraLines())
	assert.Empty(t, g.ReadRecommendationState().Applied)
}

func TestFileGateway_RoundTrip(t *testing.T) {
	g := NewFileGateway(t.TempDir())

	require.NoError(t, g.WriteGlobalOverrides(
		map[string]any{"general:gaps_in": 4, "misc:vfr": true, "general:layout": "dwindle"},
		map[string]string{"general:gaps_in": "recommendation:gaps"},
	))
	global := g.ReadGlobalOverrides()
	assert.Equal(t, 4, global.Values["general:gaps_in"], "integers come back as int")
	assert.Equal(t, true, global.Values["misc:vfr"])
	assert.Equal(t, "dwindle", global.Values["general:layout"])
	assert.Equal(t, "recommendation:gaps", global.Initiators["general:gaps_in"])

	require.NoError(t, g.WriteProfileOverrides("nord", map[string]any{"decoration:rounding": 12}))
	assert.Equal(t, map[string]any{"decoration:rounding": 12}, g.ReadProfileOverrides("nord"))

	entry := sampleEntry()
	require.NoError(t, g.WriteHotkeyState([]hotkey.Entry{entry}, map[string]string{"hk1": "recommendation:mouse"}))
	hk := g.ReadHotkeyState()
	require.Len(t, hk.Entries, 1)
	assert.Equal(t, entry.Target(), hk.Entries[0].Target())
	assert.True(t, entry.Timestamp.Equal(hk.Entries[0].Timestamp))
	assert.Equal(t, "recommendation:mouse", hk.Initiators["hk1"])

	require.NoError(t, g.WriteExtraLines([]string{"exec-once = waybar"}))
	assert.Equal(t, []string{"exec-once = waybar"}, g.ReadExtraLines())

	require.NoError(t, g.WriteRecommendationState(recommend.State{
		Applied:    map[string]bool{"r": true},
		Workspaces: map[string][]int{"w": {1, 3}},
	}))
	st := g.ReadRecommendationState()
	assert.True(t, st.Applied["r"])
	assert.Equal(t, []int{1, 3}, st.Workspaces["w"])
}

func TestFileGateway_CorruptDocumentReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	g := NewFileGateway(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, globalFile), []byte("values = [[[ not toml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hotkeysFile), []byte("entries = 42"), 0o644))

	assert.Empty(t, g.ReadGlobalOverrides().Values)
	assert.Empty(t, g.ReadHotkeyState().Entries)
}

func TestFileGateway_InvalidProfileName(t *testing.T) {
	g := NewFileGateway(t.TempDir())

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		err := g.WriteProfileOverrides(name, map[string]any{"x": 1})
		assert.ErrorIs(t, err, ErrInvalidProfile, "name %q", name)
		assert.Empty(t, g.ReadProfileOverrides(name))
	}
}

func TestFileGateway_DocumentForPath(t *testing.T) {
	dir := t.TempDir()
	g := NewFileGateway(dir)

	tests := []struct {
		path string
		doc  string
		ok   bool
	}{
		{filepath.Join(dir, "global.toml"), DocGlobal, true},
		{filepath.Join(dir, "hotkeys.toml"), DocHotkeys, true},
		{filepath.Join(dir, "extra_lines.toml"), DocExtraLines, true},
		{filepath.Join(dir, "recommendations.toml"), DocRecommendations, true},
		{filepath.Join(dir, "profiles", "nord.toml"), ProfileDoc("nord"), true},
		{filepath.Join(dir, ".global.toml.1234"), "", false},
		{filepath.Join(dir, "profiles", "nord.bak"), "", false},
	}

	for _, tt := range tests {
		doc, ok := g.DocumentForPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.doc, doc, tt.path)
	}

	assert.Equal(t, []string{dir, filepath.Join(dir, "profiles")}, g.WatchDirs())
}

func TestFileGateway_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	g := NewFileGateway(dir)

	for i := 0; i < 5; i++ {
		require.NoError(t, g.WriteExtraLines([]string{"line"}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, extraLinesFile, entries[0].Name())
}

func TestMemoryGateway_FailWrites(t *testing.T) {
	g := NewMemoryGateway()
	boom := errors.New("disk full")

	g.FailWrites(DocGlobal, boom)
	err := g.WriteGlobalOverrides(map[string]any{"a": 1}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, g.Writes(DocGlobal))
	assert.Empty(t, g.ReadGlobalOverrides().Values)

	g.FailWrites(DocGlobal, nil)
	require.NoError(t, g.WriteGlobalOverrides(map[string]any{"a": 1}, nil))
	assert.Equal(t, 1, g.Writes(DocGlobal))
}

func TestMemoryGateway_CopiesOnWrite(t *testing.T) {
	g := NewMemoryGateway()
	values := map[string]any{"a": 1}
	require.NoError(t, g.WriteProfileOverrides("nord", values))

	values["a"] = 2
	assert.Equal(t, 1, g.ReadProfileOverrides("nord")["a"])
}

func TestDebounced_CoalescesWrites(t *testing.T) {
	mem := NewMemoryGateway()
	d := NewDebounced(mem, time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.WriteExtraLines([]string{"line", string(rune('a' + i))}))
	}
	assert.Equal(t, 1, d.PendingCount())
	assert.Equal(t, 0, mem.Writes(DocExtraLines))

	require.NoError(t, d.Flush())
	assert.Equal(t, 1, mem.Writes(DocExtraLines))
	assert.Equal(t, []string{"line", "c"}, mem.ReadExtraLines())
	assert.Equal(t, 0, d.PendingCount())
}

func TestDebounced_ReadFlushesDocument(t *testing.T) {
	mem := NewMemoryGateway()
	d := NewDebounced(mem, time.Hour)

	require.NoError(t, d.WriteGlobalOverrides(map[string]any{"a": 1}, nil))
	require.NoError(t, d.WriteExtraLines([]string{"x"}))

	assert.Equal(t, 1, d.ReadGlobalOverrides().Values["a"])
	assert.Equal(t, 1, mem.Writes(DocGlobal))
	assert.Equal(t, 0, mem.Writes(DocExtraLines), "other documents stay pending")
	assert.Equal(t, 1, d.PendingCount())
}

func TestDebounced_TimerFires(t *testing.T) {
	mem := NewMemoryGateway()
	d := NewDebounced(mem, 10*time.Millisecond)

	require.NoError(t, d.WriteRecommendationState(recommend.State{Applied: map[string]bool{"r": true}}))

	assert.Eventually(t, func() bool {
		return mem.Writes(DocRecommendations) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebounced_ErrorsAndClose(t *testing.T) {
	mem := NewMemoryGateway()
	boom := errors.New("read-only filesystem")
	mem.FailWrites(DocHotkeys, boom)
	d := NewDebounced(mem, time.Hour)

	require.NoError(t, d.WriteHotkeyState([]hotkey.Entry{sampleEntry()}, nil))
	err := d.Close()
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.LastError(), boom)

	err = d.WriteExtraLines([]string{"late"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, d.Close(), "second close is a no-op")
}
