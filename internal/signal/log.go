package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/logging"
)

// emitSeq disambiguates signals emitted by this process within the same
// timestamp tick.
var emitSeq atomic.Uint64

// Log is one effort's signal directory. Listing returns signals in
// chronological order because filenames are built to sort that way; no
// file ever needs to be opened just to establish order.
type Log struct {
	dir    string
	logger *logging.Logger
}

// NewLog returns a log over the given signal directory. A nil logger
// falls back to a no-op logger; malformed-file warnings then go nowhere,
// so callers that care should pass their own.
func NewLog(dir string, logger *logging.Logger) *Log {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Log{dir: dir, logger: logger}
}

// Dir returns the signal directory path.
func (l *Log) Dir() string {
	return l.dir
}

// filename builds the unique, chronologically sortable name stem for a
// signal: zero-padded UTC timestamp, then pid and a process-local counter
// so concurrent writers can never collide, then the kind for readability.
func filename(kind Kind, t time.Time) string {
	ts := t.UTC().Format("20060102-150405.000000000")
	return fmt.Sprintf("%s-%07d-%06d-%s", ts, os.Getpid(), emitSeq.Add(1), kind)
}

// Emit appends one signal to the log. The file is created exclusively;
// an existing file is never overwritten, which keeps the log append-only
// even under misbehaving writers. The signal's ID is filled in from the
// generated name.
func (l *Log) Emit(ctx context.Context, sig *Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return errors.NewSignalError("failed to create signal directory", err)
	}

	sig.ID = filename(sig.Type, sig.Timestamp)
	data, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		return errors.NewSignalError("failed to marshal signal", err)
	}

	path := filepath.Join(l.dir, sig.Filename())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.NewSignalError("signal name collision at "+sig.Filename(), err)
		}
		return errors.NewSignalError("failed to create signal file", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.NewSignalError("failed to write signal file", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.NewSignalError("failed to sync signal file", err)
	}
	if err := f.Close(); err != nil {
		return errors.NewSignalError("failed to close signal file", err)
	}

	l.logger.Debug("signal emitted",
		"kind", string(sig.Type),
		"session_id", sig.SessionID.String(),
		"file", sig.Filename())
	return nil
}

// List returns every readable signal in chronological order. Files that
// fail to parse are skipped with a warning; one corrupt file must not
// block reconciliation of the rest.
func (l *Log) List(ctx context.Context) ([]*Signal, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewSignalError("failed to read signal directory", err)
	}

	signals := make([]*Signal, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sig, err := l.read(entry.Name())
		if err != nil {
			l.logger.Warn("skipping malformed signal",
				"file", entry.Name(),
				"error", err.Error())
			continue
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// ListAfter returns signals whose filename sorts after the given
// watermark, in chronological order. An empty watermark returns
// everything. This is what reconciliation folds from.
func (l *Log) ListAfter(ctx context.Context, watermark string) ([]*Signal, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	if watermark == "" {
		return all, nil
	}
	out := make([]*Signal, 0, len(all))
	for _, sig := range all {
		if sig.Filename() > watermark {
			out = append(out, sig)
		}
	}
	return out, nil
}

// ListSince returns signals with a timestamp at or after t, in
// chronological order.
func (l *Log) ListSince(ctx context.Context, t time.Time) ([]*Signal, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Signal, 0, len(all))
	for _, sig := range all {
		if !sig.Timestamp.Before(t) {
			out = append(out, sig)
		}
	}
	return out, nil
}

// ListForSession returns every signal for one session, in chronological
// order.
func (l *Log) ListForSession(ctx context.Context, sessionID effort.SessionID) ([]*Signal, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Signal, 0, len(all))
	for _, sig := range all {
		if sig.SessionID == sessionID {
			out = append(out, sig)
		}
	}
	return out, nil
}

// Latest returns the most recent signal, or nil when the log is empty.
func (l *Log) Latest(ctx context.Context) (*Signal, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

// read loads one signal file and stamps its ID from the filename.
func (l *Log) read(name string) (*Signal, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, err
	}
	var sig Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrSignalMalformed, err)
	}
	if !sig.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownSignalKind, sig.Type)
	}
	sig.ID = strings.TrimSuffix(name, ".json")
	return &sig, nil
}
