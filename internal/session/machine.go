package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/signal"
)

// retryAttempts is how often a mutator re-reads and re-applies after an
// optimistic save loses to a concurrent writer before giving up with a
// conflict error.
const retryAttempts = 2

// SessionSpec names a session to register, with an optional short title
// for status output.
type SessionSpec struct {
	ID    effort.SessionID
	Title string
}

// Machine drives session state transitions. All mutation of the state
// document funnels through it; workers and reviewers only ever append
// signals, which the machine folds into the document during
// reconciliation.
type Machine struct {
	store  *effort.Store
	logger *logging.Logger
}

// NewMachine returns a machine over the given store. A nil logger falls
// back to a no-op logger.
func NewMachine(store *effort.Store, logger *logging.Logger) *Machine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Machine{store: store, logger: logger}
}

// Store returns the underlying effort store.
func (m *Machine) Store() *effort.Store {
	return m.store
}

// Log returns the signal log for one effort.
func (m *Machine) Log(effortID string) *signal.Log {
	return signal.NewLog(m.store.SignalsDir(effortID), m.logger.WithEffort(effortID))
}

// ---------------------------------------------------------------------------
// Effort lifecycle
// ---------------------------------------------------------------------------

// Init creates a new effort in planning state, optionally pre-registering
// pending sessions.
func (m *Machine) Init(ctx context.Context, effortID string, sessions []SessionSpec) (*effort.Effort, error) {
	now := time.Now().UTC()
	e := effort.NewEffort(effortID, now)
	e.RecordChange(effort.NewStateChange(now, effort.ActionEffortInit, "effort_id", effortID))
	for _, spec := range sessions {
		if _, err := e.AddSession(spec.ID, spec.Title, now); err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		e.RecordChange(effort.NewStateChange(now, effort.ActionSessionAdd,
			"session_id", spec.ID.String(), "title", spec.Title))
	}
	if err := m.store.Create(ctx, e); err != nil {
		return nil, err
	}
	m.logger.WithEffort(effortID).Info("effort initialized", "sessions", len(sessions))
	return e, nil
}

// AddSessions registers pending sessions on an existing effort.
func (m *Machine) AddSessions(ctx context.Context, effortID string, sessions []SessionSpec) (*effort.Effort, error) {
	return m.mutate(ctx, effortID, func(e *effort.Effort) error {
		now := time.Now().UTC()
		for _, spec := range sessions {
			if _, err := e.AddSession(spec.ID, spec.Title, now); err != nil {
				return errors.NewValidationError(err.Error())
			}
			e.RecordChange(effort.NewStateChange(now, effort.ActionSessionAdd,
				"session_id", spec.ID.String(), "title", spec.Title))
		}
		return nil
	})
}

// Pause suspends an executing effort. Signals already in flight keep
// accumulating and are folded as usual; pausing only gates starting more
// sessions.
func (m *Machine) Pause(ctx context.Context, effortID, reason string) (*effort.Effort, error) {
	if reason == "" {
		return nil, errors.NewValidationError("pause requires a reason")
	}
	return m.mutate(ctx, effortID, func(e *effort.Effort) error {
		if e.Status != effort.StatusExecuting {
			return errors.NewPreconditionError("pause", effortID, string(e.Status), string(effort.StatusExecuting))
		}
		e.Status = effort.StatusPaused
		e.RecordChange(effort.NewStateChange(time.Now().UTC(), effort.ActionEffortPause, "reason", reason))
		return nil
	})
}

// Resume returns a paused effort to executing.
func (m *Machine) Resume(ctx context.Context, effortID string) (*effort.Effort, error) {
	return m.mutate(ctx, effortID, func(e *effort.Effort) error {
		if e.Status != effort.StatusPaused {
			return errors.NewPreconditionError("resume", effortID, string(e.Status), string(effort.StatusPaused))
		}
		e.Status = effort.StatusExecuting
		e.RecordChange(effort.NewStateChange(time.Now().UTC(), effort.ActionEffortResume))
		return nil
	})
}

// CompleteEffort marks the whole effort completed. Every session must
// already be completed.
func (m *Machine) CompleteEffort(ctx context.Context, effortID string) (*effort.Effort, error) {
	if _, err := m.Reconcile(ctx, effortID); err != nil {
		return nil, err
	}
	return m.mutate(ctx, effortID, func(e *effort.Effort) error {
		if e.Status == effort.StatusCompleted {
			return errors.NewPreconditionError("complete", effortID, string(e.Status),
				string(effort.StatusExecuting), string(effort.StatusPaused))
		}
		if !e.AllSessionsCompleted() {
			remaining := 0
			for _, rec := range e.Sessions {
				if rec.Status != effort.SessionCompleted {
					remaining++
				}
			}
			return errors.NewEffortError(
				fmt.Sprintf("%d session(s) not yet completed", remaining),
				errors.ErrEffortIncomplete).WithEffortID(effortID)
		}
		now := time.Now().UTC()
		e.Status = effort.StatusCompleted
		e.CompletedAt = &now
		e.CurrentSession = ""
		e.RecordChange(effort.NewStateChange(now, effort.ActionEffortComplete,
			"sessions", strconv.Itoa(len(e.Sessions))))
		return nil
	})
}

// ---------------------------------------------------------------------------
// Signal-driven session commands
// ---------------------------------------------------------------------------

// Start begins work on a pending or needs_revision session: it emits a
// session-started signal carrying the workspace baseline and folds it
// into the document, which moves the session to in_progress (and the
// effort from planning to executing on the first start).
func (m *Machine) Start(ctx context.Context, effortID string, sessionID effort.SessionID, baseline string) (*effort.Effort, error) {
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	if e.Status == effort.StatusPaused {
		return nil, errors.NewPreconditionError("start", effortID, string(e.Status),
			string(effort.StatusPlanning), string(effort.StatusExecuting))
	}
	rec := e.Session(sessionID)
	if rec == nil {
		return nil, errors.NewNotFoundError("session", sessionID.String())
	}
	if rec.Status != effort.SessionPending && rec.Status != effort.SessionNeedsRevision {
		return nil, errors.NewPreconditionError("start", sessionID.String(), string(rec.Status),
			string(effort.SessionPending), string(effort.SessionNeedsRevision))
	}

	if err := m.Log(effortID).Emit(ctx, signal.NewSessionStarted(sessionID, baseline)); err != nil {
		return nil, err
	}
	return m.Reconcile(ctx, effortID)
}

// Done reports a session's work as ready for review. It records the
// result reference as pending; the session stays in_progress until an
// audit passes.
func (m *Machine) Done(ctx context.Context, effortID string, sessionID effort.SessionID, result, summary string) (*effort.Effort, error) {
	if result == "" {
		return nil, errors.NewValidationError("done requires a result reference")
	}
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	rec := e.Session(sessionID)
	if rec == nil {
		return nil, errors.NewNotFoundError("session", sessionID.String())
	}
	if rec.Status != effort.SessionInProgress {
		return nil, errors.NewPreconditionError("done", sessionID.String(), string(rec.Status),
			string(effort.SessionInProgress))
	}

	if err := m.Log(effortID).Emit(ctx, signal.NewSessionDone(sessionID, result, summary)); err != nil {
		return nil, err
	}
	return m.Reconcile(ctx, effortID)
}

// AuditPass accepts the session's pending result and completes the
// session. It fails when no session-done result is awaiting review: an
// audit cannot refer to work that was never reported done.
func (m *Machine) AuditPass(ctx context.Context, effortID string, sessionID effort.SessionID) (*effort.Effort, error) {
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	rec := e.Session(sessionID)
	if rec == nil {
		return nil, errors.NewNotFoundError("session", sessionID.String())
	}
	if rec.Status != effort.SessionInProgress {
		return nil, errors.NewPreconditionError("audit-pass", sessionID.String(), string(rec.Status),
			string(effort.SessionInProgress))
	}
	if rec.PendingResultRef == "" {
		return nil, errors.NewEffortError(
			fmt.Sprintf("session %s has no result awaiting review; emit done first", sessionID),
			errors.ErrNoResultForAudit).WithEffortID(effortID).WithSessionID(sessionID.String())
	}

	if err := m.Log(effortID).Emit(ctx, signal.NewAuditPassed(sessionID)); err != nil {
		return nil, err
	}
	return m.Reconcile(ctx, effortID)
}

// AuditFail rejects the session's pending result: the session moves to
// needs_revision, its iteration count goes up by one, and the issues are
// written to a durable document under the effort's issues directory so
// the next worker pass and later reviews share the same record. A
// session already in needs_revision can be failed again; the reviewer
// found more issues before the worker came back, and each fail costs an
// iteration. Only the in_progress case needs a pending result.
func (m *Machine) AuditFail(ctx context.Context, effortID string, sessionID effort.SessionID, issues string) (*effort.Effort, error) {
	if issues == "" {
		return nil, errors.NewValidationError("audit-fail requires issues text")
	}
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	rec := e.Session(sessionID)
	if rec == nil {
		return nil, errors.NewNotFoundError("session", sessionID.String())
	}
	if rec.Status != effort.SessionInProgress && rec.Status != effort.SessionNeedsRevision {
		return nil, errors.NewPreconditionError("audit-fail", sessionID.String(), string(rec.Status),
			string(effort.SessionInProgress), string(effort.SessionNeedsRevision))
	}
	if rec.Status == effort.SessionInProgress && rec.PendingResultRef == "" {
		return nil, errors.NewEffortError(
			fmt.Sprintf("session %s has no result awaiting review; emit done first", sessionID),
			errors.ErrNoResultForAudit).WithEffortID(effortID).WithSessionID(sessionID.String())
	}

	issuesFile, err := m.writeIssueDoc(effortID, sessionID, rec.IterationCount+1, issues)
	if err != nil {
		return nil, err
	}
	if err := m.Log(effortID).Emit(ctx, signal.NewRevisionNeeded(sessionID, issues, issuesFile)); err != nil {
		return nil, err
	}
	return m.Reconcile(ctx, effortID)
}

// Escalate records that a human should take over the given sessions.
// Stored status does not change; the signal and a history entry stop the
// automatic revision loop until someone resolves it out-of-band.
func (m *Machine) Escalate(ctx context.Context, effortID string, sessionIDs []effort.SessionID, reason string) (*effort.Effort, error) {
	if reason == "" {
		return nil, errors.NewValidationError("escalate requires a reason")
	}
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	for _, id := range sessionIDs {
		rec := e.Session(id)
		if rec == nil {
			return nil, errors.NewNotFoundError("session", id.String())
		}
		if rec.Status == effort.SessionCompleted {
			return nil, errors.NewPreconditionError("escalate", id.String(), string(rec.Status),
				string(effort.SessionPending), string(effort.SessionInProgress), string(effort.SessionNeedsRevision))
		}
	}
	log := m.Log(effortID)
	for _, id := range sessionIDs {
		if err := log.Emit(ctx, signal.NewEscalationNeeded(id, reason)); err != nil {
			return nil, err
		}
	}
	return m.Reconcile(ctx, effortID)
}

// Ask records a worker's question for the operator. No status change.
func (m *Machine) Ask(ctx context.Context, effortID string, sessionID effort.SessionID, question string, options []string) (*effort.Effort, error) {
	if question == "" {
		return nil, errors.NewValidationError("ask requires a question")
	}
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	if e.Session(sessionID) == nil {
		return nil, errors.NewNotFoundError("session", sessionID.String())
	}
	if err := m.Log(effortID).Emit(ctx, signal.NewQuestion(sessionID, question, options)); err != nil {
		return nil, err
	}
	return m.Reconcile(ctx, effortID)
}

// ---------------------------------------------------------------------------
// Administrative override
// ---------------------------------------------------------------------------

// Reset manually overrides a session's status. It is the escape hatch
// for sessions stuck in_progress by a worker that never reported done,
// and for resolving escalations; it is distinct from the signal-driven
// transitions and always records the override reason in history. The
// iteration count is never touched.
func (m *Machine) Reset(ctx context.Context, effortID string, sessionID effort.SessionID, to effort.SessionStatus, reason string) (*effort.Effort, error) {
	if reason == "" {
		return nil, errors.NewValidationError("reset requires a reason")
	}
	if !to.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown session status %q", to))
	}
	if to == effort.SessionCompleted {
		return nil, errors.NewValidationError("a session cannot be completed by reset; it needs a done result and a passed audit")
	}
	return m.mutate(ctx, effortID, func(e *effort.Effort) error {
		if e.Status == effort.StatusCompleted {
			return errors.NewPreconditionError("reset", effortID, string(e.Status),
				string(effort.StatusPlanning), string(effort.StatusExecuting), string(effort.StatusPaused))
		}
		rec := e.Session(sessionID)
		if rec == nil {
			return errors.NewNotFoundError("session", sessionID.String())
		}
		old := rec.Status
		if old == to {
			return errors.NewPreconditionError("reset", sessionID.String(), string(old),
				"any status other than "+string(to))
		}
		rec.Status = to
		rec.AuditResult = effort.AuditPending
		if to == effort.SessionPending {
			rec.PendingResultRef = ""
			rec.StartedAt = nil
		}
		e.RecordChange(effort.NewStateChange(time.Now().UTC(), effort.ActionSessionReset,
			"session_id", sessionID.String(),
			"from", string(old),
			"to", string(to),
			"reason", reason))
		e.RecomputeCurrentSession()
		return nil
	})
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

// Reconcile folds every signal newer than the document's watermark
// through the transition function and saves the result atomically. It is
// idempotent: a signal is examined at most once, because the watermark
// advances in the same save that applies it. With no new signals the
// document is returned untouched.
func (m *Machine) Reconcile(ctx context.Context, effortID string) (*effort.Effort, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		e, version, err := m.store.LoadWithVersion(ctx, effortID)
		if err != nil {
			return nil, err
		}
		fresh, err := m.Log(effortID).ListAfter(ctx, e.LastSignal)
		if err != nil {
			return nil, err
		}
		if len(fresh) == 0 {
			return e, nil
		}
		Fold(e, fresh, m.logger)
		if _, err := m.store.SaveWithVersion(ctx, e, version); err != nil {
			if errors.Is(err, errors.ErrStaleState) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return e, nil
	}
	return nil, errors.NewConflictError(m.store.EffortDir(effortID), retryAttempts).WithCause(lastErr)
}

// mutate runs one administrative mutation as read-modify-atomic-write,
// reloading and retrying once when a concurrent writer got there first.
// fn must fully compute the new document, history entry included, before
// the single save.
func (m *Machine) mutate(ctx context.Context, effortID string, fn func(*effort.Effort) error) (*effort.Effort, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		e, version, err := m.store.LoadWithVersion(ctx, effortID)
		if err != nil {
			return nil, err
		}
		if err := fn(e); err != nil {
			return nil, err
		}
		if _, err := m.store.SaveWithVersion(ctx, e, version); err != nil {
			if errors.Is(err, errors.ErrStaleState) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return e, nil
	}
	return nil, errors.NewConflictError(m.store.EffortDir(effortID), retryAttempts).WithCause(lastErr)
}

// writeIssueDoc persists the reviewer's issues for one failed iteration
// and returns the document's path relative to the effort directory.
func (m *Machine) writeIssueDoc(effortID string, sessionID effort.SessionID, iteration int, issues string) (string, error) {
	dir := m.store.IssuesDir(effortID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create issues directory: %w", err)
	}
	name := fmt.Sprintf("%s-iteration-%d.md", sessionID, iteration)
	content := fmt.Sprintf("# Audit issues: session %s, iteration %d\n\nRecorded: %s\n\n%s\n",
		sessionID, iteration, time.Now().UTC().Format(time.RFC3339), issues)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write issues document: %w", err)
	}
	return filepath.Join(filepath.Base(dir), name), nil
}
