package session

import (
	"context"
	"time"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
	"github.com/Iron-Ham/conductor/internal/signal"
)

// Question is one worker question surfaced for the operator.
type Question struct {
	AskedAt time.Time
	Text    string
	Options []string
}

// Escalation is one recorded request for a human to take over.
type Escalation struct {
	At     time.Time
	Reason string
}

// ReviewPacket is everything a reviewer needs to judge a session as a
// whole: the record, every signal and history entry that touched it, and
// every result reference reported since the baseline. A session that was
// revised three times is reviewed across all three iterations, not just
// the last increment. The iteration count and accumulated issues are
// right here so the escalate-or-revise call is an informed one; the
// engine never makes that call itself.
type ReviewPacket struct {
	EffortID string
	Session  *effort.SessionRecord
	Signals  []*signal.Signal
	History  []effort.StateChange

	// Results holds every result reference reported by a session-done
	// signal, oldest first. The last entry is the one currently under
	// review (or, for a completed session, the accepted one).
	Results []string
	// Issues holds the reviewer's issues from each failed iteration,
	// oldest first.
	Issues      []string
	Questions   []Question
	Escalations []Escalation
}

// ReviewPacket gathers the full multi-iteration picture of one session.
// It reconciles first so the packet reflects every signal on disk.
func (m *Machine) ReviewPacket(ctx context.Context, effortID string, sessionID effort.SessionID) (*ReviewPacket, error) {
	e, err := m.Reconcile(ctx, effortID)
	if err != nil {
		return nil, err
	}
	rec := e.Session(sessionID)
	if rec == nil {
		return nil, errors.NewNotFoundError("session", sessionID.String())
	}

	signals, err := m.Log(effortID).ListForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	packet := &ReviewPacket{
		EffortID: effortID,
		Session:  rec,
		Signals:  signals,
		History:  e.HistoryForSession(sessionID),
	}
	for _, sig := range signals {
		switch sig.Type {
		case signal.KindSessionDone:
			if result := sig.Payload.String(signal.PayloadResult); result != "" {
				packet.Results = append(packet.Results, result)
			}
		case signal.KindRevisionNeeded:
			if issues := sig.Payload.String(signal.PayloadIssues); issues != "" {
				packet.Issues = append(packet.Issues, issues)
			}
		case signal.KindQuestion:
			packet.Questions = append(packet.Questions, Question{
				AskedAt: sig.Timestamp,
				Text:    sig.Payload.String(signal.PayloadQuestion),
				Options: sig.Payload.Strings(signal.PayloadOptions),
			})
		case signal.KindEscalationNeeded:
			packet.Escalations = append(packet.Escalations, Escalation{
				At:     sig.Timestamp,
				Reason: sig.Payload.String(signal.PayloadReason),
			})
		}
	}
	return packet, nil
}
