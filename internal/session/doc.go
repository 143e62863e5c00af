// Package session implements the per-session state machine and the
// audit/revision loop on top of the effort state store and the signal
// log.
//
// Sessions move from pending to in_progress and on to completed or
// needs_revision, with re-entry from needs_revision any number of
// times. Completion always takes two signals: a session-done reporting
// a result, then an audit-passed accepting it. A revision-needed signal
// sends the session back with its iteration count bumped. Escalation is
// an overlay: it appends a history entry and stops the automatic loop,
// but never changes the stored status; a human resolves it out-of-band.
//
// There is one code path for live commands and replay. Every command
// validates its precondition against reconciled state, emits a signal,
// and then reconciles: signals newer than the document's watermark are
// folded through the transition function and saved atomically together
// with the advanced watermark. Folding the same signal twice is
// therefore impossible, which is what makes replay idempotent.
//
// Whether to escalate or revise again is never computed here. The
// reviewer decides by choosing which signal to emit; the machine's job
// is to expose the iteration count and full history to that decision.
package session
