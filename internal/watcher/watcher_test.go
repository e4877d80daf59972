package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dshills/hyprtune/internal/persist"
)

func newTestWatcher(t *testing.T, delay time.Duration) (*Watcher, *persist.FileGateway) {
	t.Helper()

	dir := t.TempDir()
	gw := persist.NewFileGateway(dir)
	w, err := New(gw, gw.WatchDirs(), WithDebounceDelay(delay))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, gw
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()

	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestWatcher_DocumentEvent(t *testing.T) {
	w, gw := newTestWatcher(t, 20*time.Millisecond)

	if err := gw.WriteGlobalOverrides(map[string]any{"misc:vfr": true}, nil); err != nil {
		t.Fatalf("write error = %v", err)
	}

	ev := waitEvent(t, w)
	if ev.Document != persist.DocGlobal {
		t.Errorf("Document = %q, want %q", ev.Document, persist.DocGlobal)
	}
	if !ev.Op.Has(OpCreate) {
		t.Errorf("Op = %v, want CREATE from atomic rename", ev.Op)
	}
}

func TestWatcher_BufferSize(t *testing.T) {
	gw := persist.NewFileGateway(t.TempDir())

	tests := []struct {
		size int
		want int
	}{
		{8, 8},
		{0, DefaultBufferSize},
		{-1, DefaultBufferSize},
	}

	for _, tt := range tests {
		w, err := New(gw, gw.WatchDirs(), WithBufferSize(tt.size))
		if err != nil {
			t.Fatalf("New error = %v", err)
		}
		if got := cap(w.events); got != tt.want {
			t.Errorf("WithBufferSize(%d): events capacity = %d, want %d", tt.size, got, tt.want)
		}
		if got := cap(w.errors); got != tt.want {
			t.Errorf("WithBufferSize(%d): errors capacity = %d, want %d", tt.size, got, tt.want)
		}
		w.Close()
	}
}

func TestWatcher_ProfileDocument(t *testing.T) {
	w, gw := newTestWatcher(t, 20*time.Millisecond)

	if err := gw.WriteProfileOverrides("nord", map[string]any{"general:gaps_in": 3}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	ev := waitEvent(t, w)
	if ev.Document != persist.ProfileDoc("nord") {
		t.Errorf("Document = %q, want %q", ev.Document, persist.ProfileDoc("nord"))
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	w, gw := newTestWatcher(t, 20*time.Millisecond)

	if err := os.WriteFile(filepath.Join(gw.Dir(), "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write error = %v", err)
	}
	if err := gw.WriteExtraLines([]string{"exec-once = waybar"}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	ev := waitEvent(t, w)
	if ev.Document != persist.DocExtraLines {
		t.Errorf("first event Document = %q, want %q", ev.Document, persist.DocExtraLines)
	}
}

func TestWatcher_Debounces(t *testing.T) {
	w, gw := newTestWatcher(t, time.Hour)

	for i := 0; i < 5; i++ {
		if err := gw.WriteHotkeyState(nil, nil); err != nil {
			t.Fatalf("write error = %v", err)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for w.PendingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Let the remaining file events arrive.
	time.Sleep(50 * time.Millisecond)

	if got := w.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1", got)
	}

	w.Flush()
	ev := waitEvent(t, w)
	if ev.Document != persist.DocHotkeys {
		t.Errorf("Document = %q, want %q", ev.Document, persist.DocHotkeys)
	}
	if w.TotalEvents() != 1 {
		t.Errorf("TotalEvents() = %d, want 1", w.TotalEvents())
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, _ := newTestWatcher(t, 20*time.Millisecond)

	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed")
	}
}

type recordingReloader struct {
	mu   sync.Mutex
	docs []string
}

func (r *recordingReloader) Reload(doc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
}

func (r *recordingReloader) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.docs...)
}

func TestRun(t *testing.T) {
	w, gw := newTestWatcher(t, 20*time.Millisecond)
	r := &recordingReloader{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, w, r) }()

	if err := gw.WriteRecommendationState(persist.NewMemoryGateway().ReadRecommendationState()); err != nil {
		t.Fatalf("write error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(r.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	docs := r.snapshot()
	if len(docs) == 0 {
		t.Fatal("reloader was not called")
	}
	if docs[0] != persist.DocRecommendations {
		t.Errorf("reloaded %q, want %q", docs[0], persist.DocRecommendations)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestOp_String(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpCreate | OpWrite, "MULTIPLE"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
