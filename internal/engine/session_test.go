package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/notify"
	"github.com/dshills/hyprtune/internal/override"
	"github.com/dshills/hyprtune/internal/persist"
)

// newDigEngine returns an engine on profile "nord" with one global override,
// two profile overrides and one profile hotkey.
func newDigEngine(t *testing.T, opts ...Option) (*Engine, *persist.MemoryGateway) {
	t.Helper()

	gw := persist.NewMemoryGateway()
	require.NoError(t, gw.WriteGlobalOverrides(
		map[string]any{"general:gaps_in": 0},
		map[string]string{"general:gaps_in": InitiatorUser},
	))
	require.NoError(t, gw.WriteProfileOverrides("nord", map[string]any{
		"general:gaps_in":     4,
		"decoration:rounding": 12,
	}))
	require.NoError(t, gw.WriteHotkeyState([]hotkey.Entry{{
		ID:         "p1",
		Dispatcher: "exec",
		Args:       "wofi --show drun",
		Action:     hotkey.ActionAdd,
		Profile:    "nord",
		Metadata:   hotkey.Metadata{Modifiers: []string{"SUPER"}, Key: "D", BindType: "bind"},
	}}, map[string]string{"p1": "nord"}))
	gw.ResetWrites()

	opts = append([]Option{WithProfile("nord")}, opts...)
	return newTestEngine(t, gw, nil, opts...), gw
}

func TestDigParameter(t *testing.T) {
	e, gw := newDigEngine(t)
	s, err := e.OpenSession()
	require.NoError(t, err)

	assert.False(t, s.HasPendingChanges())
	require.NoError(t, s.DigParameter("decoration:rounding"))
	assert.True(t, s.HasPendingChanges())

	values, initiators := e.GlobalOverrides()
	assert.Equal(t, 12, values["decoration:rounding"])
	assert.Equal(t, "nord", initiators["decoration:rounding"])
	assert.Equal(t, 1, gw.Writes(persist.DocGlobal))

	assert.ErrorIs(t, s.DigParameter("misc:vfr"), ErrNoProfileOverride)
}

func TestDig_SnapshotTakenBeforeFirstAction(t *testing.T) {
	e, gw := newDigEngine(t)
	g0Values, g0Initiators := e.GlobalOverrides()

	s, err := e.OpenSession()
	require.NoError(t, err)

	require.NoError(t, s.DigParameter("general:gaps_in"))
	g1, _ := e.GlobalOverrides()
	require.Equal(t, 4, g1["general:gaps_in"])

	require.NoError(t, s.DigParameter("decoration:rounding"))

	require.NoError(t, s.Rollback())

	values, initiators := e.GlobalOverrides()
	assert.Equal(t, g0Values, values, "rollback restores G0, not G1")
	assert.Equal(t, g0Initiators, initiators)
	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, g0Values, gw.ReadGlobalOverrides().Values)
}

func TestDigHotkey(t *testing.T) {
	e, gw := newDigEngine(t)
	s, err := e.OpenSession()
	require.NoError(t, err)

	require.NoError(t, s.DigHotkey("p1"))

	entries, initiators := e.Hotkeys()
	require.Len(t, entries, 2)
	dup := entries[1]
	assert.Equal(t, "hk1", dup.ID)
	assert.True(t, dup.IsGlobal)
	assert.Empty(t, dup.Profile)
	assert.Equal(t, entries[0].Target(), dup.Target())
	assert.Equal(t, "nord", initiators["hk1"])
	assert.Equal(t, 1, gw.Writes(persist.DocHotkeys))

	// The binding is global now, so a second DIG copies nothing.
	require.NoError(t, s.DigHotkey("p1"))
	entries, _ = e.Hotkeys()
	assert.Len(t, entries, 2)

	assert.ErrorIs(t, s.DigHotkey("hk1"), ErrNotProfileHotkey)
	assert.ErrorIs(t, s.DigHotkey("missing"), ErrUnknownHotkey)
}

func TestDigAll(t *testing.T) {
	e, _ := newDigEngine(t)
	s, err := e.OpenSession()
	require.NoError(t, err)

	n, err := s.DigAll()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	values, _ := e.GlobalOverrides()
	assert.Equal(t, 4, values["general:gaps_in"])
	assert.Equal(t, 12, values["decoration:rounding"])

	require.NoError(t, s.Rollback())
	values, _ = e.GlobalOverrides()
	assert.Equal(t, map[string]any{"general:gaps_in": 0}, values)
	entries, _ := e.Hotkeys()
	assert.Len(t, entries, 1)
}

func TestRollback_OnlyCapturedParts(t *testing.T) {
	e, _ := newDigEngine(t)
	s, err := e.OpenSession()
	require.NoError(t, err)

	require.NoError(t, s.DigHotkey("p1"))
	// A direct edit during the session is not part of any DIG.
	require.NoError(t, e.SetOverride(override.Global, "misc:vfr", true))

	require.NoError(t, s.Rollback())

	entries, _ := e.Hotkeys()
	assert.Len(t, entries, 1, "hotkeys restored")
	values, _ := e.GlobalOverrides()
	assert.Equal(t, true, values["misc:vfr"], "params were never captured, so they are untouched")
}

func TestRollback_PartialPersistence(t *testing.T) {
	e, gw := newDigEngine(t)
	s, err := e.OpenSession()
	require.NoError(t, err)

	require.NoError(t, s.DigParameter("general:gaps_in"))
	require.NoError(t, s.DigHotkey("p1"))

	boom := errors.New("permission denied")
	gw.FailWrites(persist.DocHotkeys, boom)

	err = s.Rollback()
	var partial *PartialRollbackError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, partial.Failed, persist.DocHotkeys)
	assert.Contains(t, partial.Persisted, persist.DocGlobal)
	assert.Contains(t, err.Error(), "hotkeys")

	// Memory is restored regardless.
	entries, _ := e.Hotkeys()
	assert.Len(t, entries, 1)
	values, _ := e.GlobalOverrides()
	assert.Equal(t, 0, values["general:gaps_in"])
	assert.False(t, s.HasPendingChanges())
}

func TestRollback_Notifies(t *testing.T) {
	n := notify.New()
	e, _ := newDigEngine(t, WithNotifier(n), WithEmitter("dig-popup"))
	s, err := e.OpenSession()
	require.NoError(t, err)
	require.NoError(t, s.DigParameter("general:gaps_in"))

	var got []notify.Payload
	n.Subscribe(func(p notify.Payload) { got = append(got, p) })

	require.NoError(t, s.Rollback())

	require.Len(t, got, 1, "only the restored part is announced")
	assert.Equal(t, notify.EventGlobalOverrides, got[0].Event)
	assert.Equal(t, "dig-popup", got[0].Emitter)
	assert.Equal(t, 0, got[0].Params["general:gaps_in"])
}

func TestRollback_WithoutSnapshotIsNoop(t *testing.T) {
	e, gw := newDigEngine(t)
	s, err := e.OpenSession()
	require.NoError(t, err)

	require.NoError(t, s.Rollback())
	assert.Equal(t, 0, gw.Writes(persist.DocGlobal))
}

func TestSession_Close(t *testing.T) {
	tests := []struct {
		name         string
		dig          bool
		mode         CloseMode
		answer       bool
		wantAsked    int
		wantRollback bool
	}{
		{"cancel with changes, confirmed", true, CloseCancel, true, 1, true},
		{"cancel with changes, declined", true, CloseCancel, false, 1, false},
		{"cancel without changes", false, CloseCancel, true, 0, false},
		{"save with changes", true, CloseSave, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newDigEngine(t)
			s, err := e.OpenSession()
			require.NoError(t, err)
			if tt.dig {
				require.NoError(t, s.DigParameter("general:gaps_in"))
			}

			asked := 0
			rolledBack, err := s.Close(tt.mode, func() bool {
				asked++
				return tt.answer
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAsked, asked)
			assert.Equal(t, tt.wantRollback, rolledBack)

			values, _ := e.GlobalOverrides()
			if tt.dig && !tt.wantRollback {
				assert.Equal(t, 4, values["general:gaps_in"], "DIG changes kept")
			} else {
				assert.Equal(t, 0, values["general:gaps_in"])
			}
			assert.False(t, s.HasPendingChanges())
		})
	}
}

func TestSession_Lifecycle(t *testing.T) {
	e, _ := newDigEngine(t)

	s, err := e.OpenSession()
	require.NoError(t, err)

	_, err = e.OpenSession()
	assert.ErrorIs(t, err, ErrSessionOpen)

	_, err = s.Close(CloseSave, nil)
	require.NoError(t, err)

	_, err = s.Close(CloseSave, nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.DigParameter("general:gaps_in"), ErrSessionClosed)
	assert.ErrorIs(t, s.Rollback(), ErrSessionClosed)

	next, err := e.OpenSession()
	require.NoError(t, err)
	assert.NotSame(t, s, next)
}

func TestDig_RequiresProfile(t *testing.T) {
	gw := persist.NewMemoryGateway()
	e := newTestEngine(t, gw, nil)
	s, err := e.OpenSession()
	require.NoError(t, err)

	assert.ErrorIs(t, s.DigParameter("general:gaps_in"), ErrNoProfile)
	_, err = s.DigAll()
	assert.ErrorIs(t, err, ErrNoProfile)
}
