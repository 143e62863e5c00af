package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	store, err := effort.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return NewMachine(store, nil)
}

// seedEffort initializes an effort with the given pending sessions.
func seedEffort(t *testing.T, m *Machine, effortID string, ids ...effort.SessionID) {
	t.Helper()
	specs := make([]SessionSpec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, SessionSpec{ID: id})
	}
	if _, err := m.Init(context.Background(), effortID, specs); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a planning effort with pending sessions", func(t *testing.T) {
		m := newTestMachine(t)
		e, err := m.Init(ctx, "auth-refactor", []SessionSpec{
			{ID: "1.1", Title: "extract token store"},
			{ID: "1.2"},
		})
		if err != nil {
			t.Fatalf("Init() error: %v", err)
		}
		if e.Status != effort.StatusPlanning {
			t.Errorf("Status = %q, want planning", e.Status)
		}
		if len(e.Sessions) != 2 {
			t.Fatalf("Sessions = %d, want 2", len(e.Sessions))
		}
		if got := e.Session("1.1"); got.Status != effort.SessionPending || got.Title != "extract token store" {
			t.Errorf("session 1.1 = %+v", got)
		}
		// One init entry plus one per registered session.
		if len(e.History) != 3 {
			t.Errorf("History = %d entries, want 3", len(e.History))
		}
	})

	t.Run("rejects a duplicate effort", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Init(ctx, "auth-refactor", nil); err == nil {
			t.Error("duplicate Init() succeeded, want error")
		}
	})

	t.Run("rejects a malformed session id", func(t *testing.T) {
		m := newTestMachine(t)
		if _, err := m.Init(ctx, "auth-refactor", []SessionSpec{{ID: "phase-one"}}); err == nil {
			t.Error("Init() with bad session id succeeded, want error")
		}
	})
}

func TestAddSessions(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "1.1")

	e, err := m.AddSessions(ctx, "auth-refactor", []SessionSpec{{ID: "2.1"}, {ID: "2.2", Title: "rotate keys"}})
	if err != nil {
		t.Fatalf("AddSessions() error: %v", err)
	}
	if len(e.Sessions) != 3 {
		t.Errorf("Sessions = %d, want 3", len(e.Sessions))
	}

	if _, err := m.AddSessions(ctx, "auth-refactor", []SessionSpec{{ID: "2.1"}}); err == nil {
		t.Error("AddSessions() with duplicate id succeeded, want error")
	}
	if _, err := m.AddSessions(ctx, "missing", []SessionSpec{{ID: "1.1"}}); !errors.Is(err, errors.ErrEffortNotFound) {
		t.Errorf("AddSessions() on missing effort = %v, want effort not found", err)
	}
}

// TestHappyPath walks a session through the two-signal completion:
// start, done (still in progress, ready for review), audit pass.
func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "1.1")

	e, err := m.Start(ctx, "auth-refactor", "1.1", "base-commit")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	rec := e.Session("1.1")
	if rec.Status != effort.SessionInProgress {
		t.Fatalf("after start: Status = %q, want in_progress", rec.Status)
	}
	if rec.BaselineRef != "base-commit" {
		t.Errorf("BaselineRef = %q, want base-commit", rec.BaselineRef)
	}
	if rec.StartedAt == nil {
		t.Error("StartedAt not recorded")
	}
	if e.Status != effort.StatusExecuting {
		t.Errorf("effort Status = %q, want executing after first start", e.Status)
	}
	if e.CurrentSession != "1.1" {
		t.Errorf("CurrentSession = %q, want 1.1", e.CurrentSession)
	}

	// done alone means "ready for review", never completed.
	e, err = m.Done(ctx, "auth-refactor", "1.1", "r1", "extracted the token store")
	if err != nil {
		t.Fatalf("Done() error: %v", err)
	}
	rec = e.Session("1.1")
	if rec.Status != effort.SessionInProgress {
		t.Errorf("after done: Status = %q, want in_progress", rec.Status)
	}
	if rec.AuditResult != effort.AuditPending {
		t.Errorf("after done: AuditResult = %q, want pending", rec.AuditResult)
	}
	if rec.PendingResultRef != "r1" {
		t.Errorf("PendingResultRef = %q, want r1", rec.PendingResultRef)
	}
	if rec.ResultRef != "" {
		t.Errorf("ResultRef = %q before audit, want empty", rec.ResultRef)
	}

	e, err = m.AuditPass(ctx, "auth-refactor", "1.1")
	if err != nil {
		t.Fatalf("AuditPass() error: %v", err)
	}
	rec = e.Session("1.1")
	if rec.Status != effort.SessionCompleted {
		t.Errorf("after audit pass: Status = %q, want completed", rec.Status)
	}
	if rec.AuditResult != effort.AuditPassed {
		t.Errorf("AuditResult = %q, want passed", rec.AuditResult)
	}
	if rec.ResultRef != "r1" || rec.PendingResultRef != "" {
		t.Errorf("ResultRef = %q, PendingResultRef = %q; want r1 and empty", rec.ResultRef, rec.PendingResultRef)
	}
	if rec.CompletedAt == nil {
		t.Error("CompletedAt not recorded")
	}
	if rec.IterationCount != 0 {
		t.Errorf("IterationCount = %d, want 0 for a first-pass accept", rec.IterationCount)
	}
}

// TestRevisionLoop walks the audit/revision cycle twice and then
// escalates, checking the iteration counter and the escalation overlay.
func TestRevisionLoop(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "2.1")

	mustStart := func() {
		t.Helper()
		if _, err := m.Start(ctx, "auth-refactor", "2.1", "base"); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
	}
	mustDone := func(result string) {
		t.Helper()
		if _, err := m.Done(ctx, "auth-refactor", "2.1", result, ""); err != nil {
			t.Fatalf("Done() error: %v", err)
		}
	}

	mustStart()
	mustDone("r1")
	e, err := m.AuditFail(ctx, "auth-refactor", "2.1", "missing tests")
	if err != nil {
		t.Fatalf("AuditFail() error: %v", err)
	}
	rec := e.Session("2.1")
	if rec.Status != effort.SessionNeedsRevision {
		t.Fatalf("after fail: Status = %q, want needs_revision", rec.Status)
	}
	if rec.IterationCount != 1 {
		t.Errorf("IterationCount = %d, want 1", rec.IterationCount)
	}
	if rec.AuditResult != effort.AuditFailed {
		t.Errorf("AuditResult = %q, want failed", rec.AuditResult)
	}
	if rec.PendingResultRef != "" {
		t.Errorf("PendingResultRef = %q after fail, want cleared", rec.PendingResultRef)
	}
	if len(rec.Notes) != 1 || rec.Notes[0] != "missing tests" {
		t.Errorf("Notes = %v, want the issues text", rec.Notes)
	}

	// The issues live in a durable document too.
	issuesPath := filepath.Join(m.Store().IssuesDir("auth-refactor"), "2.1-iteration-1.md")
	data, err := os.ReadFile(issuesPath)
	if err != nil {
		t.Fatalf("issues document not written: %v", err)
	}
	if !strings.Contains(string(data), "missing tests") {
		t.Errorf("issues document does not contain the issues text: %q", data)
	}

	// Re-entry and a second failure.
	mustStart()
	mustDone("r2")
	e, err = m.AuditFail(ctx, "auth-refactor", "2.1", "still flaky")
	if err != nil {
		t.Fatalf("second AuditFail() error: %v", err)
	}
	rec = e.Session("2.1")
	if rec.IterationCount != 2 {
		t.Errorf("IterationCount = %d, want 2", rec.IterationCount)
	}
	if rec.Status != effort.SessionNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", rec.Status)
	}

	// Escalation changes nothing but the record.
	before := rec.Status
	e, err = m.Escalate(ctx, "auth-refactor", []effort.SessionID{"2.1"}, "recurring issue")
	if err != nil {
		t.Fatalf("Escalate() error: %v", err)
	}
	rec = e.Session("2.1")
	if rec.Status != before {
		t.Errorf("escalation changed status to %q, want %q", rec.Status, before)
	}
	if rec.IterationCount != 2 {
		t.Errorf("escalation changed IterationCount to %d", rec.IterationCount)
	}
	last := e.History[len(e.History)-1]
	if last.Action != effort.ActionSessionEscalate {
		t.Errorf("last history action = %q, want %q", last.Action, effort.ActionSessionEscalate)
	}
	if last.Detail["reason"] != "recurring issue" {
		t.Errorf("escalation reason = %q", last.Detail["reason"])
	}

	// The loop can still resume after a human weighs in.
	mustStart()
	mustDone("r3")
	e, err = m.AuditPass(ctx, "auth-refactor", "2.1")
	if err != nil {
		t.Fatalf("AuditPass() after escalation error: %v", err)
	}
	rec = e.Session("2.1")
	if rec.Status != effort.SessionCompleted || rec.IterationCount != 2 {
		t.Errorf("final state = %q iteration %d, want completed at iteration 2", rec.Status, rec.IterationCount)
	}
	if rec.ResultRef != "r3" {
		t.Errorf("ResultRef = %q, want r3", rec.ResultRef)
	}
}

func TestRepeatAuditFailBeforeReentry(t *testing.T) {
	// A reviewer can fail a session again while it already sits in
	// needs_revision: more issues surfaced before the worker came back.
	// Each fail costs one iteration and accumulates in the notes and the
	// issues directory; no new done result is required for the repeat.
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "2.1")

	if _, err := m.Start(ctx, "auth-refactor", "2.1", "base"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Done(ctx, "auth-refactor", "2.1", "r1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AuditFail(ctx, "auth-refactor", "2.1", "tokens leak"); err != nil {
		t.Fatalf("AuditFail() error: %v", err)
	}

	e, err := m.AuditFail(ctx, "auth-refactor", "2.1", "and the refresh path races")
	if err != nil {
		t.Fatalf("repeat AuditFail() error: %v", err)
	}
	rec := e.Session("2.1")
	if rec.Status != effort.SessionNeedsRevision {
		t.Errorf("Status = %q, want needs_revision", rec.Status)
	}
	if rec.IterationCount != 2 {
		t.Errorf("IterationCount = %d, want 2", rec.IterationCount)
	}
	if len(rec.Notes) != 2 || rec.Notes[1] != "and the refresh path races" {
		t.Errorf("Notes = %v, want both issue texts", rec.Notes)
	}

	issuesPath := filepath.Join(m.Store().IssuesDir("auth-refactor"), "2.1-iteration-2.md")
	if _, err := os.Stat(issuesPath); err != nil {
		t.Errorf("second issues document not written: %v", err)
	}

	// Passing still demands a fresh done result.
	if _, err := m.AuditPass(ctx, "auth-refactor", "2.1"); !errors.IsPrecondition(err) {
		t.Errorf("AuditPass() in needs_revision = %v, want precondition violation", err)
	}

	// A session that never ran still cannot be failed.
	seedEffort(t, m, "other-effort", "1.1")
	if _, err := m.AuditFail(ctx, "other-effort", "1.1", "x"); !errors.IsPrecondition(err) {
		t.Errorf("AuditFail() on pending session = %v, want precondition violation", err)
	}
}

func TestPreconditions(t *testing.T) {
	ctx := context.Background()

	// snapshot reads the raw state document for before/after comparison.
	snapshot := func(t *testing.T, m *Machine, effortID string) string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(m.Store().EffortDir(effortID), "state.json"))
		if err != nil {
			t.Fatalf("reading state document: %v", err)
		}
		return string(data)
	}

	t.Run("done on a never-started session fails without mutating", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		before := snapshot(t, m, "auth-refactor")

		_, err := m.Done(ctx, "auth-refactor", "1.1", "r1", "")
		if !errors.IsPrecondition(err) {
			t.Fatalf("Done() on pending session = %v, want precondition violation", err)
		}
		if !strings.Contains(err.Error(), "pending") || !strings.Contains(err.Error(), "in_progress") {
			t.Errorf("error %q does not name actual and expected status", err)
		}
		if after := snapshot(t, m, "auth-refactor"); after != before {
			t.Error("failed Done() mutated the state document")
		}
	})

	t.Run("start on an in-progress session fails without mutating", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		before := snapshot(t, m, "auth-refactor")

		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); !errors.IsPrecondition(err) {
			t.Fatalf("second Start() = %v, want precondition violation", err)
		}
		if after := snapshot(t, m, "auth-refactor"); after != before {
			t.Error("failed Start() mutated the state document")
		}
	})

	t.Run("start on a completed session fails", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Done(ctx, "auth-refactor", "1.1", "r1", ""); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AuditPass(ctx, "auth-refactor", "1.1"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); !errors.IsPrecondition(err) {
			t.Errorf("Start() on completed session = %v, want precondition violation", err)
		}
	})

	t.Run("audit pass without a done result fails", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AuditPass(ctx, "auth-refactor", "1.1"); !errors.Is(err, errors.ErrNoResultForAudit) {
			t.Errorf("AuditPass() without done = %v, want no-result-for-audit", err)
		}
	})

	t.Run("audit fail without a done result fails", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AuditFail(ctx, "auth-refactor", "1.1", "nope"); !errors.Is(err, errors.ErrNoResultForAudit) {
			t.Errorf("AuditFail() without done = %v, want no-result-for-audit", err)
		}
	})

	t.Run("escalating a completed session fails", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Done(ctx, "auth-refactor", "1.1", "r1", ""); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AuditPass(ctx, "auth-refactor", "1.1"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Escalate(ctx, "auth-refactor", []effort.SessionID{"1.1"}, "r"); !errors.IsPrecondition(err) {
			t.Errorf("Escalate() on completed session = %v, want precondition violation", err)
		}
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "9.9", "base"); !errors.Is(err, errors.ErrSessionNotFound) {
			t.Errorf("Start() on unknown session = %v, want session not found", err)
		}
	})

	t.Run("unknown effort is not found", func(t *testing.T) {
		m := newTestMachine(t)
		if _, err := m.Start(ctx, "missing", "1.1", "base"); !errors.Is(err, errors.ErrEffortNotFound) {
			t.Errorf("Start() on unknown effort = %v, want effort not found", err)
		}
	})
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "1.1", "1.2")
	if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Pause(ctx, "auth-refactor", ""); err == nil {
		t.Error("Pause() without reason succeeded, want error")
	}

	e, err := m.Pause(ctx, "auth-refactor", "holiday freeze")
	if err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	if e.Status != effort.StatusPaused {
		t.Errorf("Status = %q, want paused", e.Status)
	}

	// No new sessions start while paused; in-flight signals still fold.
	if _, err := m.Start(ctx, "auth-refactor", "1.2", "base"); !errors.IsPrecondition(err) {
		t.Errorf("Start() while paused = %v, want precondition violation", err)
	}
	if _, err := m.Done(ctx, "auth-refactor", "1.1", "r1", ""); err != nil {
		t.Errorf("Done() while paused error: %v", err)
	}

	if _, err := m.Pause(ctx, "auth-refactor", "again"); !errors.IsPrecondition(err) {
		t.Errorf("double Pause() = %v, want precondition violation", err)
	}

	e, err = m.Resume(ctx, "auth-refactor")
	if err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	if e.Status != effort.StatusExecuting {
		t.Errorf("Status = %q, want executing", e.Status)
	}
	if _, err := m.Resume(ctx, "auth-refactor"); !errors.IsPrecondition(err) {
		t.Errorf("double Resume() = %v, want precondition violation", err)
	}
}

func TestCompleteEffort(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "1.1", "2.1")

	finish := func(id effort.SessionID, result string) {
		t.Helper()
		if _, err := m.Start(ctx, "auth-refactor", id, "base"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Done(ctx, "auth-refactor", id, result, ""); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AuditPass(ctx, "auth-refactor", id); err != nil {
			t.Fatal(err)
		}
	}

	finish("1.1", "r1")
	if _, err := m.CompleteEffort(ctx, "auth-refactor"); !errors.Is(err, errors.ErrEffortIncomplete) {
		t.Fatalf("CompleteEffort() with open session = %v, want effort incomplete", err)
	}

	finish("2.1", "r2")
	e, err := m.CompleteEffort(ctx, "auth-refactor")
	if err != nil {
		t.Fatalf("CompleteEffort() error: %v", err)
	}
	if e.Status != effort.StatusCompleted {
		t.Errorf("Status = %q, want completed", e.Status)
	}
	if e.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if _, err := m.CompleteEffort(ctx, "auth-refactor"); !errors.IsPrecondition(err) {
		t.Errorf("double CompleteEffort() = %v, want precondition violation", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("releases a stuck session with a recorded reason", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatal(err)
		}

		e, err := m.Reset(ctx, "auth-refactor", "1.1", effort.SessionPending, "worker never reported back")
		if err != nil {
			t.Fatalf("Reset() error: %v", err)
		}
		rec := e.Session("1.1")
		if rec.Status != effort.SessionPending {
			t.Errorf("Status = %q, want pending", rec.Status)
		}
		if rec.StartedAt != nil {
			t.Errorf("StartedAt = %v after reset to pending, want nil", rec.StartedAt)
		}
		last := e.History[len(e.History)-1]
		if last.Action != effort.ActionSessionReset {
			t.Errorf("last action = %q, want %q", last.Action, effort.ActionSessionReset)
		}
		if last.Detail["reason"] != "worker never reported back" ||
			last.Detail["from"] != "in_progress" || last.Detail["to"] != "pending" {
			t.Errorf("reset detail = %v", last.Detail)
		}

		// The session can be started again afterwards.
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base2"); err != nil {
			t.Errorf("Start() after reset error: %v", err)
		}
	})

	t.Run("never resets iteration count", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); err != nil {
			t.Fatal(err)
		}
		if _, err := m.Done(ctx, "auth-refactor", "1.1", "r1", ""); err != nil {
			t.Fatal(err)
		}
		if _, err := m.AuditFail(ctx, "auth-refactor", "1.1", "issues"); err != nil {
			t.Fatal(err)
		}

		e, err := m.Reset(ctx, "auth-refactor", "1.1", effort.SessionPending, "restart from scratch")
		if err != nil {
			t.Fatalf("Reset() error: %v", err)
		}
		if got := e.Session("1.1").IterationCount; got != 1 {
			t.Errorf("IterationCount = %d after reset, want 1", got)
		}
	})

	t.Run("rejects reset to completed", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Reset(ctx, "auth-refactor", "1.1", effort.SessionCompleted, "shortcut"); err == nil {
			t.Error("Reset(completed) succeeded, want error")
		}
	})

	t.Run("requires a reason", func(t *testing.T) {
		m := newTestMachine(t)
		seedEffort(t, m, "auth-refactor", "1.1")
		if _, err := m.Reset(ctx, "auth-refactor", "1.1", effort.SessionPending, ""); err == nil {
			t.Error("Reset() without reason succeeded, want error")
		}
	})
}

// TestHistoryMatchesOperations checks that every successful operation
// appends exactly one history entry per applied change, so the audit
// trail never disagrees with the document.
func TestHistoryMatchesOperations(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "1.1") // init + add = 2 entries

	steps := []struct {
		name string
		run  func() error
	}{
		{"start", func() error { _, err := m.Start(ctx, "auth-refactor", "1.1", "base"); return err }},
		{"done", func() error { _, err := m.Done(ctx, "auth-refactor", "1.1", "r1", ""); return err }},
		{"audit fail", func() error { _, err := m.AuditFail(ctx, "auth-refactor", "1.1", "issues"); return err }},
		{"restart", func() error { _, err := m.Start(ctx, "auth-refactor", "1.1", ""); return err }},
		{"done again", func() error { _, err := m.Done(ctx, "auth-refactor", "1.1", "r2", ""); return err }},
		{"audit pass", func() error { _, err := m.AuditPass(ctx, "auth-refactor", "1.1"); return err }},
		{"complete", func() error { _, err := m.CompleteEffort(ctx, "auth-refactor"); return err }},
	}

	want := 2
	for _, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("%s error: %v", step.name, err)
		}
		want++
		e, err := m.Store().Load(ctx, "auth-refactor")
		if err != nil {
			t.Fatal(err)
		}
		if len(e.History) != want {
			t.Fatalf("after %s: history has %d entries, want %d", step.name, len(e.History), want)
		}
	}
}

func TestIterationTimestampsAdvance(t *testing.T) {
	// StartedAt tracks the latest re-entry so reviewers can see when the
	// current iteration began.
	ctx := context.Background()
	m := newTestMachine(t)
	seedEffort(t, m, "auth-refactor", "1.1")

	e, err := m.Start(ctx, "auth-refactor", "1.1", "base")
	if err != nil {
		t.Fatal(err)
	}
	first := *e.Session("1.1").StartedAt

	if _, err := m.Done(ctx, "auth-refactor", "1.1", "r1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AuditFail(ctx, "auth-refactor", "1.1", "issues"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	e, err = m.Start(ctx, "auth-refactor", "1.1", "")
	if err != nil {
		t.Fatal(err)
	}
	rec := e.Session("1.1")
	if !rec.StartedAt.After(first) {
		t.Errorf("StartedAt did not advance on re-entry: %v vs %v", rec.StartedAt, first)
	}
	if rec.BaselineRef != "base" {
		t.Errorf("BaselineRef = %q after re-entry without a new baseline, want original", rec.BaselineRef)
	}
}
