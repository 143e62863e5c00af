// Package testutil provides shared helpers for conductor tests: temp
// stores, seeded efforts, and shortcuts for driving sessions through
// their lifecycle.
package testutil

import (
	"context"
	"testing"

	"github.com/Iron-Ham/conductor/internal/coordinator"
	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/session"
)

// TempStore creates a state store rooted in a temp directory that is
// cleaned up when the test completes.
func TempStore(t *testing.T) *effort.Store {
	t.Helper()

	store, err := effort.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

// NewMachine builds a session machine over a temp store with logging
// discarded.
func NewMachine(t *testing.T) *session.Machine {
	t.Helper()
	return session.NewMachine(TempStore(t), nil)
}

// NewCoordinator builds a coordinator and its machine over a temp store.
func NewCoordinator(t *testing.T) (*coordinator.Coordinator, *session.Machine) {
	t.Helper()

	store := TempStore(t)
	machine := session.NewMachine(store, nil)
	return coordinator.New(store, machine, nil), machine
}

// SeedEffort initializes an effort with the given session IDs, all
// untitled and pending.
func SeedEffort(t *testing.T, m *session.Machine, effortID string, ids ...effort.SessionID) {
	t.Helper()

	specs := make([]session.SessionSpec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, session.SessionSpec{ID: id})
	}
	if _, err := m.Init(context.Background(), effortID, specs); err != nil {
		t.Fatalf("failed to init effort %s: %v", effortID, err)
	}
}

// StartSession starts a session and fails the test on error.
func StartSession(t *testing.T, m *session.Machine, effortID string, id effort.SessionID, baseline string) {
	t.Helper()

	if _, err := m.Start(context.Background(), effortID, id, baseline); err != nil {
		t.Fatalf("failed to start session %s: %v", id, err)
	}
}

// FinishSession drives a session from start through a passing audit.
func FinishSession(t *testing.T, m *session.Machine, effortID string, id effort.SessionID, result string) {
	t.Helper()

	ctx := context.Background()
	if _, err := m.Start(ctx, effortID, id, "base"); err != nil {
		t.Fatalf("failed to start session %s: %v", id, err)
	}
	if _, err := m.Done(ctx, effortID, id, result, ""); err != nil {
		t.Fatalf("failed to report session %s done: %v", id, err)
	}
	if _, err := m.AuditPass(ctx, effortID, id); err != nil {
		t.Fatalf("failed to pass audit for session %s: %v", id, err)
	}
}

// FailIteration drives a session through one failed audit round: start,
// done, audit fail.
func FailIteration(t *testing.T, m *session.Machine, effortID string, id effort.SessionID, result, issues string) {
	t.Helper()

	ctx := context.Background()
	if _, err := m.Start(ctx, effortID, id, ""); err != nil {
		t.Fatalf("failed to start session %s: %v", id, err)
	}
	if _, err := m.Done(ctx, effortID, id, result, ""); err != nil {
		t.Fatalf("failed to report session %s done: %v", id, err)
	}
	if _, err := m.AuditFail(ctx, effortID, id, issues); err != nil {
		t.Fatalf("failed to fail audit for session %s: %v", id, err)
	}
}
