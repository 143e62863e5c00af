// Package coordinator implements the supervising decision loop an
// operator interacts with. It is a read-only consumer of the state store
// and the signal log: it summarizes progress, picks the next eligible
// session, and hands continuity to its successor through checkpoints.
// All mutation it triggers goes through the session machine's commands;
// it never writes the state document itself.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/logging"
	"github.com/Iron-Ham/conductor/internal/session"
	"github.com/Iron-Ham/conductor/internal/signal"
)

// Coordinator reads effort state and decides what to launch next. How
// many sessions run concurrently is never its call: one Advance starts
// one session, and the operator decides how often to invoke it.
type Coordinator struct {
	store   *effort.Store
	machine *session.Machine
	logger  *logging.Logger
}

// New returns a coordinator over the given store and machine. A nil
// logger falls back to a no-op logger.
func New(store *effort.Store, machine *session.Machine, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Coordinator{store: store, machine: machine, logger: logger}
}

// SessionSummary is one session's line in the status view.
type SessionSummary struct {
	ID             effort.SessionID
	Title          string
	Status         effort.SessionStatus
	AuditResult    effort.AuditResult
	IterationCount int
	ResultRef      string
	// Escalated is derived from signals, not stored status: an
	// escalation-needed newer than the session's last start, on a
	// session that has not completed since.
	Escalated bool
	StartedAt *time.Time
}

// PhaseSummary groups the sessions of one phase.
type PhaseSummary struct {
	Phase    int
	Sessions []SessionSummary
}

// OpenQuestion is a worker question awaiting the operator.
type OpenQuestion struct {
	SessionID effort.SessionID
	AskedAt   time.Time
	Text      string
	Options   []string
}

// Summary is the coordinator's status view of one effort.
type Summary struct {
	EffortID string
	// Started is false when no state document exists yet; the effort is
	// then "not yet started" rather than an error.
	Started   bool
	Status    effort.Status
	UpdatedAt time.Time

	Phases    []PhaseSummary
	Counts    map[effort.SessionStatus]int
	Questions []OpenQuestion

	// LatestSignal is the most recent signal across all sessions, nil
	// when none have been emitted.
	LatestSignal *signal.Signal
}

// CompletedCount returns how many sessions have completed.
func (s *Summary) CompletedCount() int {
	return s.Counts[effort.SessionCompleted]
}

// TotalCount returns the number of known sessions.
func (s *Summary) TotalCount() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// Status builds the read-only summary of an effort. A missing state
// document yields a "not yet started" summary; signals newer than the
// document's watermark are folded into a throwaway copy so the view is
// current without the coordinator writing anything.
func (c *Coordinator) Status(ctx context.Context, effortID string) (*Summary, error) {
	e, err := c.store.LoadOrInit(ctx, effortID)
	if err != nil {
		return nil, err
	}
	started := c.store.Exists(effortID)

	log := c.machine.Log(effortID)
	if fresh, err := log.ListAfter(ctx, e.LastSignal); err == nil && len(fresh) > 0 {
		session.Fold(e, fresh, c.logger)
	}

	summary := &Summary{
		EffortID:  effortID,
		Started:   started,
		Status:    e.Status,
		UpdatedAt: e.UpdatedAt,
		Counts:    make(map[effort.SessionStatus]int),
	}

	all, err := log.List(ctx)
	if err != nil {
		return nil, err
	}
	lastStart := make(map[effort.SessionID]string)
	lastEscalation := make(map[effort.SessionID]string)
	for _, sig := range all {
		switch sig.Type {
		case signal.KindSessionStarted:
			lastStart[sig.SessionID] = sig.Filename()
		case signal.KindEscalationNeeded:
			lastEscalation[sig.SessionID] = sig.Filename()
		case signal.KindQuestion:
			summary.Questions = append(summary.Questions, OpenQuestion{
				SessionID: sig.SessionID,
				AskedAt:   sig.Timestamp,
				Text:      sig.Payload.String(signal.PayloadQuestion),
				Options:   sig.Payload.Strings(signal.PayloadOptions),
			})
		}
	}
	if len(all) > 0 {
		summary.LatestSignal = all[len(all)-1]
	}

	var phase *PhaseSummary
	for _, rec := range e.OrderedSessions() {
		summary.Counts[rec.Status]++
		if phase == nil || phase.Phase != rec.ID.Phase() {
			summary.Phases = append(summary.Phases, PhaseSummary{Phase: rec.ID.Phase()})
			phase = &summary.Phases[len(summary.Phases)-1]
		}
		phase.Sessions = append(phase.Sessions, SessionSummary{
			ID:             rec.ID,
			Title:          rec.Title,
			Status:         rec.Status,
			AuditResult:    rec.AuditResult,
			IterationCount: rec.IterationCount,
			ResultRef:      rec.ResultRef,
			Escalated: rec.Status != effort.SessionCompleted &&
				lastEscalation[rec.ID] != "" &&
				lastEscalation[rec.ID] > lastStart[rec.ID],
			StartedAt: rec.StartedAt,
		})
	}
	return summary, nil
}

// NextEligible returns the first pending session whose dependencies are
// satisfied: every session in every earlier phase is completed. Sessions
// within one phase carry no ordering dependency on each other, so an
// operator may advance several of them concurrently.
func NextEligible(e *effort.Effort) (effort.SessionID, bool) {
	ids := e.SessionIDs()
	for _, id := range ids {
		rec := e.Sessions[id]
		if rec.Status != effort.SessionPending {
			continue
		}
		if earlierPhasesCompleted(e, ids, id.Phase()) {
			return id, true
		}
	}
	return "", false
}

func earlierPhasesCompleted(e *effort.Effort, ids []effort.SessionID, phase int) bool {
	for _, id := range ids {
		if id.Phase() >= phase {
			break
		}
		if e.Sessions[id].Status != effort.SessionCompleted {
			return false
		}
	}
	return true
}

// Advance starts the next eligible session, or the named one after
// checking its dependencies. It returns the started session's id. One
// call starts exactly one session.
func (c *Coordinator) Advance(ctx context.Context, effortID string, sessionID effort.SessionID, baseline string) (effort.SessionID, error) {
	e, err := c.machine.Reconcile(ctx, effortID)
	if err != nil {
		return "", err
	}

	if sessionID == "" {
		next, ok := NextEligible(e)
		if !ok {
			return "", errors.NewEffortError(
				"no eligible session: nothing pending with all earlier phases completed",
				errors.ErrOperationFailed).WithEffortID(effortID)
		}
		sessionID = next
	} else {
		rec := e.Session(sessionID)
		if rec == nil {
			return "", errors.NewNotFoundError("session", sessionID.String())
		}
		if !earlierPhasesCompleted(e, e.SessionIDs(), sessionID.Phase()) {
			return "", errors.NewPreconditionError("advance", sessionID.String(),
				fmt.Sprintf("phase %d has earlier phases with incomplete sessions", sessionID.Phase()),
				"all earlier phases completed")
		}
	}

	if _, err := c.machine.Start(ctx, effortID, sessionID, baseline); err != nil {
		return "", err
	}
	c.logger.WithEffort(effortID).WithSession(sessionID.String()).Info("session advanced")
	return sessionID, nil
}
