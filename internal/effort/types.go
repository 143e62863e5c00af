package effort

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Statuses
// ---------------------------------------------------------------------------

// Status is the overall lifecycle state of an effort.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusExecuting Status = "executing"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known effort status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusExecuting, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a single session.
type SessionStatus string

const (
	SessionPending       SessionStatus = "pending"
	SessionInProgress    SessionStatus = "in_progress"
	SessionCompleted     SessionStatus = "completed"
	SessionNeedsRevision SessionStatus = "needs_revision"
)

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionInProgress, SessionCompleted, SessionNeedsRevision:
		return true
	}
	return false
}

// AuditResult is the reviewer's verdict on a session's most recent work.
type AuditResult string

const (
	AuditPending AuditResult = "pending"
	AuditPassed  AuditResult = "passed"
	AuditFailed  AuditResult = "failed"
)

// Valid reports whether a is a known audit result.
func (a AuditResult) Valid() bool {
	switch a {
	case AuditPending, AuditPassed, AuditFailed:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// Action names recorded in the effort history. One entry is appended per
// applied operation, whether it came in through a signal or an
// administrative command.
const (
	ActionEffortInit     = "effort.init"
	ActionEffortPause    = "effort.pause"
	ActionEffortResume   = "effort.resume"
	ActionEffortComplete = "effort.complete"

	ActionSessionAdd      = "session.add"
	ActionSessionStart    = "session.start"
	ActionSessionDone     = "session.done"
	ActionSessionReset    = "session.reset"
	ActionSessionEscalate = "session.escalate"
	ActionSessionQuestion = "session.question"

	ActionAuditPass = "audit.pass"
	ActionAuditFail = "audit.fail"
)

// StateChange is one immutable line of the effort's audit trail. Detail
// carries small key/value context such as old/new status or a result ref.
// History is for humans reading `status` output; nothing reads it back to
// make control decisions.
type StateChange struct {
	At     time.Time         `json:"at"`
	Action string            `json:"action"`
	Detail map[string]string `json:"detail,omitempty"`
}

// NewStateChange builds a history entry from alternating key/value pairs.
func NewStateChange(at time.Time, action string, kv ...string) StateChange {
	var detail map[string]string
	if len(kv) > 0 {
		detail = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			detail[kv[i]] = kv[i+1]
		}
	}
	return StateChange{At: at, Action: action, Detail: detail}
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// SessionRecord is the stored state of one session within an effort.
type SessionRecord struct {
	ID             SessionID     `json:"session_id"`
	Title          string        `json:"title,omitempty"`
	Status         SessionStatus `json:"status"`
	AuditResult    AuditResult   `json:"audit_result"`
	IterationCount int           `json:"iteration_count"`

	// BaselineRef is the reference the session started from. ResultRef is
	// set only once an audit passes; until then the latest unreviewed
	// result lives in PendingResultRef.
	BaselineRef      string `json:"baseline_ref,omitempty"`
	PendingResultRef string `json:"pending_result_ref,omitempty"`
	ResultRef        string `json:"result_ref,omitempty"`

	Notes []string `json:"notes,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Effort is the canonical state document, one per effort directory. All
// mutation goes through read-modify-atomic-write on this struct.
type Effort struct {
	ID             string                       `json:"effort_id"`
	Status         Status                       `json:"status"`
	CurrentSession SessionID                    `json:"current_session,omitempty"`
	Sessions       map[SessionID]*SessionRecord `json:"sessions"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	History []StateChange `json:"history"`

	// LastSignal is the filename of the newest signal folded into this
	// document. Reconciliation only applies signals that sort after it,
	// which is what makes replay idempotent.
	LastSignal string `json:"last_signal,omitempty"`
}

// NewEffort returns a fresh planning-state document with no sessions.
func NewEffort(id string, now time.Time) *Effort {
	return &Effort{
		ID:        id,
		Status:    StatusPlanning,
		Sessions:  make(map[SessionID]*SessionRecord),
		StartedAt: now,
		UpdatedAt: now,
		History:   []StateChange{},
	}
}

// Session returns the record for id, or nil if the effort has no such
// session.
func (e *Effort) Session(id SessionID) *SessionRecord {
	if e.Sessions == nil {
		return nil
	}
	return e.Sessions[id]
}

// AddSession registers a new pending session. It fails if the id is
// malformed or already present.
func (e *Effort) AddSession(id SessionID, title string, now time.Time) (*SessionRecord, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("invalid session id %q: expected phase.session form like 2.1 or 4.2b", id)
	}
	if e.Session(id) != nil {
		return nil, fmt.Errorf("session %s already exists in effort %s", id, e.ID)
	}
	if e.Sessions == nil {
		e.Sessions = make(map[SessionID]*SessionRecord)
	}
	rec := &SessionRecord{
		ID:          id,
		Title:       title,
		Status:      SessionPending,
		AuditResult: AuditPending,
	}
	e.Sessions[id] = rec
	e.UpdatedAt = now
	return rec, nil
}

// SessionIDs returns all session ids in phase/session order.
func (e *Effort) SessionIDs() []SessionID {
	ids := make([]SessionID, 0, len(e.Sessions))
	for id := range e.Sessions {
		ids = append(ids, id)
	}
	SortSessionIDs(ids)
	return ids
}

// OrderedSessions returns all session records in phase/session order.
func (e *Effort) OrderedSessions() []*SessionRecord {
	ids := e.SessionIDs()
	out := make([]*SessionRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.Sessions[id])
	}
	return out
}

// AllSessionsCompleted reports whether the effort has at least one session
// and every one of them has completed.
func (e *Effort) AllSessionsCompleted() bool {
	if len(e.Sessions) == 0 {
		return false
	}
	for _, rec := range e.Sessions {
		if rec.Status != SessionCompleted {
			return false
		}
	}
	return true
}

// RecordChange appends a history entry and touches the update timestamp.
func (e *Effort) RecordChange(change StateChange) {
	e.History = append(e.History, change)
	if change.At.After(e.UpdatedAt) {
		e.UpdatedAt = change.At
	}
}

// RecomputeCurrentSession derives current_session from session state: the
// in-progress session with the most recent start, ties broken by id order.
// Deriving rather than tracking keeps the field stable under signal replay.
func (e *Effort) RecomputeCurrentSession() {
	var current SessionID
	var currentStart time.Time
	for _, id := range e.SessionIDs() {
		rec := e.Sessions[id]
		if rec.Status != SessionInProgress || rec.StartedAt == nil {
			continue
		}
		if current == "" || rec.StartedAt.After(currentStart) {
			current = id
			currentStart = *rec.StartedAt
		}
	}
	e.CurrentSession = current
}

// HistoryForSession filters the audit trail to entries about one session.
func (e *Effort) HistoryForSession(id SessionID) []StateChange {
	var out []StateChange
	for _, change := range e.History {
		if change.Detail["session_id"] == id.String() {
			out = append(out, change)
		}
	}
	return out
}

// Validate checks the document's structural invariants. A document that
// fails validation is reported as malformed rather than acted on.
func (e *Effort) Validate() error {
	if err := ValidateEffortID(e.ID); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return fmt.Errorf("effort %s: unknown status %q", e.ID, e.Status)
	}
	if (e.Status == StatusCompleted) != (e.CompletedAt != nil) {
		return fmt.Errorf("effort %s: completed_at must be set exactly when status is completed", e.ID)
	}
	if e.Status == StatusCompleted && !e.AllSessionsCompleted() {
		return fmt.Errorf("effort %s: status is completed but not every session is completed", e.ID)
	}
	if e.CurrentSession != "" && e.Session(e.CurrentSession) == nil {
		return fmt.Errorf("effort %s: current_session %s not found", e.ID, e.CurrentSession)
	}
	for id, rec := range e.Sessions {
		if rec == nil {
			return fmt.Errorf("effort %s: session %s has no record", e.ID, id)
		}
		if id != rec.ID {
			return fmt.Errorf("effort %s: session key %s does not match record id %s", e.ID, id, rec.ID)
		}
		if !id.Valid() {
			return fmt.Errorf("effort %s: invalid session id %q", e.ID, id)
		}
		if !rec.Status.Valid() {
			return fmt.Errorf("session %s: unknown status %q", id, rec.Status)
		}
		if !rec.AuditResult.Valid() {
			return fmt.Errorf("session %s: unknown audit result %q", id, rec.AuditResult)
		}
		if rec.IterationCount < 0 {
			return fmt.Errorf("session %s: negative iteration count %d", id, rec.IterationCount)
		}
		if rec.Status == SessionCompleted {
			if rec.AuditResult != AuditPassed {
				return fmt.Errorf("session %s: completed without a passed audit", id)
			}
			if rec.ResultRef == "" {
				return fmt.Errorf("session %s: completed without a result ref", id)
			}
			if rec.CompletedAt == nil {
				return fmt.Errorf("session %s: completed without a completion time", id)
			}
		}
		if rec.AuditResult == AuditPassed && rec.Status != SessionCompleted {
			return fmt.Errorf("session %s: audit passed but status is %s", id, rec.Status)
		}
	}
	return nil
}
