package signal

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/conductor/internal/errors"
)

// WatchOptions tunes how Watch follows the signal directory.
type WatchOptions struct {
	// From is the filename watermark to resume from. Signals whose name
	// sorts after it are delivered. Empty means "only signals appended
	// after the watch starts".
	From string
	// Debounce coalesces bursts of filesystem events into one scan.
	Debounce time.Duration
	// PollInterval is a safety-net rescan interval, since filesystem
	// notifications can be dropped under load. Zero disables polling.
	PollInterval time.Duration
}

// Watch follows the signal directory and delivers newly appended signals
// on the returned channel, in filename order, until ctx is done. Each
// signal is delivered at most once. The channel is closed when the watch
// stops.
//
// Watching is a read-only operator convenience; nothing in the engine
// depends on it for correctness.
func (l *Log) Watch(ctx context.Context, opts WatchOptions) (<-chan *Signal, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 250 * time.Millisecond
	}

	// The directory has to exist before it can be watched. Creating it
	// here is safe: Emit uses the same MkdirAll.
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, errors.NewSignalError("failed to create signal directory", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewSignalError("failed to create filesystem watcher", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		_ = watcher.Close()
		return nil, errors.NewSignalError("failed to watch signal directory", err)
	}

	watermark := opts.From
	if watermark == "" {
		if latest, err := l.Latest(ctx); err == nil && latest != nil {
			watermark = latest.Filename()
		}
	}

	out := make(chan *Signal, 16)

	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		var poll <-chan time.Time
		if opts.PollInterval > 0 {
			ticker := time.NewTicker(opts.PollInterval)
			defer ticker.Stop()
			poll = ticker.C
		}

		debounce := time.NewTimer(opts.Debounce)
		if !debounce.Stop() {
			<-debounce.C
		}

		deliver := func() {
			fresh, err := l.ListAfter(ctx, watermark)
			if err != nil {
				l.logger.Warn("signal watch scan failed", "error", err.Error())
				return
			}
			for _, sig := range fresh {
				select {
				case out <- sig:
					watermark = sig.Filename()
				case <-ctx.Done():
					return
				}
			}
		}

		// Catch anything appended between Latest and watcher.Add.
		deliver()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				debounce.Reset(opts.Debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("signal watch error", "error", err.Error())
			case <-debounce.C:
				deliver()
			case <-poll:
				deliver()
			}
		}
	}()

	return out, nil
}
