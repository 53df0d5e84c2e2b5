package files

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events produced by one atomic save.
const DefaultDebounce = 150 * time.Millisecond

// WatchFile calls onChange every time path is created, written, or replaced,
// until ctx is cancelled. The parent directory is watched so atomic
// rename-into-place saves are seen. Errors from onChange are logged and do
// not stop the watch.
func WatchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func() error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}
	logger.Info("watch: started", slog.String("path", target))

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watch: stopped", slog.String("path", target))
			return nil

		case <-timerC:
			timerC = nil
			if err := onChange(); err != nil {
				logger.Warn("watch: change handler failed",
					slog.String("path", target),
					slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watch: event", slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: error", slog.String("error", werr.Error()))
		}
	}
}
