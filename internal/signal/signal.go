// Package signal implements the append-only signal log. Signals are the
// only channel through which workers and reviewers report outcomes; each
// one is an immutable, uniquely-named file, so any number of independent
// processes can append concurrently without coordination.
package signal

import (
	"time"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
)

// Kind is the type of a signal.
type Kind string

const (
	// KindSessionStarted records that work on a session began.
	KindSessionStarted Kind = "session-started"
	// KindSessionDone records that a worker finished a unit of work and
	// its result is ready for review. It never completes a session by
	// itself.
	KindSessionDone Kind = "session-done"
	// KindAuditPassed records a reviewer accepting the pending result.
	KindAuditPassed Kind = "audit-passed"
	// KindRevisionNeeded records a reviewer rejecting the pending result
	// with issues to address. Each one bumps the session's iteration
	// count.
	KindRevisionNeeded Kind = "revision-needed"
	// KindEscalationNeeded asks a human to take over. Stored status does
	// not change; the signal plus a history entry are the record.
	KindEscalationNeeded Kind = "escalation-needed"
	// KindQuestion asks the operator a question, optionally with
	// proposed options, without blocking anything.
	KindQuestion Kind = "question"
)

// KnownKinds lists every signal kind in a stable order.
func KnownKinds() []Kind {
	return []Kind{
		KindSessionStarted,
		KindSessionDone,
		KindAuditPassed,
		KindRevisionNeeded,
		KindEscalationNeeded,
		KindQuestion,
	}
}

// Valid reports whether k is a known signal kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSessionStarted, KindSessionDone, KindAuditPassed,
		KindRevisionNeeded, KindEscalationNeeded, KindQuestion:
		return true
	}
	return false
}

// Well-known payload keys.
const (
	PayloadBaseline   = "baseline"
	PayloadResult     = "result"
	PayloadSummary    = "summary"
	PayloadIssues     = "issues"
	PayloadIssuesFile = "issues_file"
	PayloadReason     = "reason"
	PayloadQuestion   = "question"
	PayloadOptions    = "options"
)

// Payload is the free-form data attached to a signal.
type Payload map[string]any

// String returns the payload value for key if it is a string.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Strings returns the payload value for key as a string slice. It accepts
// both []string and the []any that JSON decoding produces.
func (p Payload) Strings(key string) []string {
	if p == nil {
		return nil
	}
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Signal is one immutable record in the log. ID is the file's unique name
// stem; it is assigned when the signal is emitted and doubles as the
// reconciliation watermark value, since names sort chronologically.
type Signal struct {
	ID        string           `json:"id"`
	Type      Kind             `json:"type"`
	SessionID effort.SessionID `json:"session_id"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   Payload          `json:"payload,omitempty"`
}

// Filename returns the name of the file holding this signal.
func (s *Signal) Filename() string {
	return s.ID + ".json"
}

// Validate checks that the signal is well-formed enough to emit.
func (s *Signal) Validate() error {
	if !s.Type.Valid() {
		return errors.NewSignalError("unknown signal kind "+string(s.Type), errors.ErrUnknownSignalKind)
	}
	if !s.SessionID.Valid() {
		return errors.NewSignalError("invalid session id "+string(s.SessionID), errors.ErrInvalidInput)
	}
	if s.Timestamp.IsZero() {
		return errors.NewSignalError("signal has no timestamp", nil)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func newSignal(kind Kind, sessionID effort.SessionID, payload Payload) *Signal {
	return &Signal{
		Type:      kind,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewSessionStarted builds a session-started signal carrying the workspace
// baseline reference captured at start.
func NewSessionStarted(sessionID effort.SessionID, baseline string) *Signal {
	p := Payload{}
	if baseline != "" {
		p[PayloadBaseline] = baseline
	}
	return newSignal(KindSessionStarted, sessionID, p)
}

// NewSessionDone builds a session-done signal carrying the result
// reference ready for review.
func NewSessionDone(sessionID effort.SessionID, result, summary string) *Signal {
	p := Payload{PayloadResult: result}
	if summary != "" {
		p[PayloadSummary] = summary
	}
	return newSignal(KindSessionDone, sessionID, p)
}

// NewAuditPassed builds an audit-passed signal.
func NewAuditPassed(sessionID effort.SessionID) *Signal {
	return newSignal(KindAuditPassed, sessionID, Payload{})
}

// NewRevisionNeeded builds a revision-needed signal carrying the
// reviewer's issues and, when one was written, the path of the durable
// issue document.
func NewRevisionNeeded(sessionID effort.SessionID, issues, issuesFile string) *Signal {
	p := Payload{PayloadIssues: issues}
	if issuesFile != "" {
		p[PayloadIssuesFile] = issuesFile
	}
	return newSignal(KindRevisionNeeded, sessionID, p)
}

// NewEscalationNeeded builds an escalation-needed signal carrying the
// reason a human should take over.
func NewEscalationNeeded(sessionID effort.SessionID, reason string) *Signal {
	return newSignal(KindEscalationNeeded, sessionID, Payload{PayloadReason: reason})
}

// NewQuestion builds a question signal, optionally carrying proposed
// answer options.
func NewQuestion(sessionID effort.SessionID, question string, options []string) *Signal {
	p := Payload{PayloadQuestion: question}
	if len(options) > 0 {
		p[PayloadOptions] = options
	}
	return newSignal(KindQuestion, sessionID, p)
}
