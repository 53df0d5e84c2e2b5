package files

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatchFileSeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.stamps")
	if err := os.WriteFile(path, []byte("00:10 a\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- WatchFile(ctx, path, 20*time.Millisecond, logger, func() error {
			calls.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(dir, "tanda-tmp")
	if err := os.WriteFile(tmp, []byte("00:10 a\n00:20 b\n"), 0o644); err != nil {
		t.Fatalf("WriteFile tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "expected onChange after replace")

	before := calls.Load()
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile other: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if calls.Load() != before {
		t.Fatalf("unrelated file triggered onChange")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WatchFile returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WatchFile did not stop after cancel")
	}
}
