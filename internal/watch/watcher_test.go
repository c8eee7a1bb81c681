package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"cmdetect/internal/batch"
	"cmdetect/internal/logging"
	"cmdetect/internal/report"
	"cmdetect/internal/testsupport"
)

func newTestWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	runner := batch.New(cfg, logging.NewNop(), batch.Options{})
	w, err := New(dir, OptionsFromConfig(cfg, dir), runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func waitForFile(t *testing.T, path string) report.Document {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if f, err := os.Open(path); err == nil {
			doc, decodeErr := report.Decode(f)
			f.Close()
			if decodeErr == nil {
				return doc
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
	return report.Document{}
}

func TestMatchesAndResultPath(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	tests := map[string]bool{
		"rec.log":        true,
		"/x/y/rec.log":   true,
		"rec.cm.json":    false,
		".hidden.log":    false,
		"notes.txt":      false,
		".cmdetect.lock": false,
	}
	for name, want := range tests {
		if got := w.Matches(name); got != want {
			t.Fatalf("Matches(%q) = %v, want %v", name, got, want)
		}
	}
	if got := w.ResultPath("/rec/news.log"); got != "/rec/news.cm.json" {
		t.Fatalf("unexpected result path %q", got)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := batch.New(cfg, logging.NewNop(), batch.Options{})
	if _, err := New(filepath.Join(t.TempDir(), "missing"), OptionsFromConfig(cfg, "x"), runner, nil); err == nil {
		t.Fatal("expected missing directory error")
	}
	opts := OptionsFromConfig(cfg, "x")
	opts.Pattern = "["
	if _, err := New(t.TempDir(), opts, runner, nil); err == nil {
		t.Fatal("expected bad pattern error")
	}
}

func TestRunProcessesNewAndExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := testsupport.WriteFile(t, filepath.Join(dir, "early.log"),
		testsupport.SilenceLog(testsupport.CMBreakIntervals(50_000)...))
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	w := newTestWatcher(t, dir)
	startWatcher(t, w)

	doc := waitForFile(t, w.ResultPath(existing))
	if len(doc.Blocks) != 1 || doc.Blocks[0].StartMs != 50_000 {
		t.Fatalf("unexpected existing result %+v", doc)
	}

	fresh := testsupport.WriteFile(t, filepath.Join(dir, "late.log"),
		testsupport.SilenceLog(append(testsupport.CMBreakIntervals(100_000), testsupport.CMBreakIntervals(700_000)...)...))
	doc = waitForFile(t, w.ResultPath(fresh))
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %+v", doc.Blocks)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.cm.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected non-matching file to be ignored, stat err %v", err)
	}
}

func TestRunRefusesLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	other := flock.New(w.opts.LockPath)
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer other.Unlock()

	if err := w.Run(context.Background()); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
