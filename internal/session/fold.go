package session

import (
	"strconv"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/signal"
)

// Fold applies signals, already in filename order, to the document and
// advances the watermark past every one of them. Signals that do not fit
// the session's current state are skipped with a warning and never
// revisited: an audit-passed with nothing done, for instance, cannot
// refer to a completed unit of work and must not be accepted later
// either.
//
// Fold is a pure in-memory transformation. Callers persist the result;
// the coordinator uses it on a throwaway copy to present a current view
// without writing.
func Fold(e *effort.Effort, signals []*signal.Signal, logger *logging.Logger) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	for _, sig := range signals {
		apply(e, sig, logger)
		if name := sig.Filename(); name > e.LastSignal {
			e.LastSignal = name
		}
	}
	e.RecomputeCurrentSession()
}

// apply runs one signal through the transition function.
func apply(e *effort.Effort, sig *signal.Signal, logger *logging.Logger) {
	log := logger.WithEffort(e.ID).WithSession(sig.SessionID.String())

	rec := e.Session(sig.SessionID)
	if rec == nil {
		log.Warn("skipping signal for unknown session", "kind", string(sig.Type), "file", sig.Filename())
		return
	}

	switch sig.Type {
	case signal.KindSessionStarted:
		if rec.Status != effort.SessionPending && rec.Status != effort.SessionNeedsRevision {
			log.Warn("skipping session-started: session not startable",
				"status", string(rec.Status), "file", sig.Filename())
			return
		}
		from := rec.Status
		rec.Status = effort.SessionInProgress
		rec.AuditResult = effort.AuditPending
		rec.PendingResultRef = ""
		at := sig.Timestamp
		rec.StartedAt = &at
		if baseline := sig.Payload.String(signal.PayloadBaseline); baseline != "" {
			rec.BaselineRef = baseline
		}
		detail := []string{
			"session_id", sig.SessionID.String(),
			"from", string(from),
			"baseline", rec.BaselineRef,
		}
		if e.Status == effort.StatusPlanning {
			e.Status = effort.StatusExecuting
			detail = append(detail, "effort_status", string(effort.StatusExecuting))
		}
		e.RecordChange(effort.NewStateChange(sig.Timestamp, effort.ActionSessionStart, detail...))

	case signal.KindSessionDone:
		if rec.Status != effort.SessionInProgress {
			log.Warn("skipping session-done: session not in progress",
				"status", string(rec.Status), "file", sig.Filename())
			return
		}
		result := sig.Payload.String(signal.PayloadResult)
		if result == "" {
			log.Warn("skipping session-done without a result reference", "file", sig.Filename())
			return
		}
		rec.PendingResultRef = result
		e.RecordChange(effort.NewStateChange(sig.Timestamp, effort.ActionSessionDone,
			"session_id", sig.SessionID.String(),
			"result", result,
			"summary", sig.Payload.String(signal.PayloadSummary)))

	case signal.KindAuditPassed:
		// An audit can only accept work that was reported done for the
		// current iteration. Anything else is noise, not a completion.
		if rec.Status != effort.SessionInProgress || rec.PendingResultRef == "" {
			log.Warn("skipping audit-passed with no result awaiting review",
				"status", string(rec.Status), "file", sig.Filename())
			return
		}
		rec.Status = effort.SessionCompleted
		rec.AuditResult = effort.AuditPassed
		rec.ResultRef = rec.PendingResultRef
		rec.PendingResultRef = ""
		at := sig.Timestamp
		rec.CompletedAt = &at
		e.RecordChange(effort.NewStateChange(sig.Timestamp, effort.ActionAuditPass,
			"session_id", sig.SessionID.String(),
			"result", rec.ResultRef,
			"iteration", strconv.Itoa(rec.IterationCount)))

	case signal.KindRevisionNeeded:
		// A repeat fail on a session already in needs_revision applies
		// too: the reviewer found more issues before the worker came
		// back, and each revision-needed costs one iteration.
		if rec.Status != effort.SessionInProgress && rec.Status != effort.SessionNeedsRevision {
			log.Warn("skipping revision-needed: session has no work to revise",
				"status", string(rec.Status), "file", sig.Filename())
			return
		}
		rec.Status = effort.SessionNeedsRevision
		rec.AuditResult = effort.AuditFailed
		rec.IterationCount++
		rec.PendingResultRef = ""
		if issues := sig.Payload.String(signal.PayloadIssues); issues != "" {
			rec.Notes = append(rec.Notes, issues)
		}
		e.RecordChange(effort.NewStateChange(sig.Timestamp, effort.ActionAuditFail,
			"session_id", sig.SessionID.String(),
			"iteration", strconv.Itoa(rec.IterationCount),
			"issues_file", sig.Payload.String(signal.PayloadIssuesFile)))

	case signal.KindEscalationNeeded:
		// Overlay only: history records the escalation, status stays put
		// until a human resolves it.
		e.RecordChange(effort.NewStateChange(sig.Timestamp, effort.ActionSessionEscalate,
			"session_id", sig.SessionID.String(),
			"reason", sig.Payload.String(signal.PayloadReason),
			"status", string(rec.Status),
			"iteration", strconv.Itoa(rec.IterationCount)))

	case signal.KindQuestion:
		e.RecordChange(effort.NewStateChange(sig.Timestamp, effort.ActionSessionQuestion,
			"session_id", sig.SessionID.String(),
			"question", sig.Payload.String(signal.PayloadQuestion)))

	default:
		log.Warn("skipping signal of unknown kind", "kind", string(sig.Type), "file", sig.Filename())
	}
}
