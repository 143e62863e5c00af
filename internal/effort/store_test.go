package effort

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/conductor/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store
}

func TestNewStore(t *testing.T) {
	t.Run("creates the root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "conductor")
		store, err := NewStore(root)
		if err != nil {
			t.Fatalf("NewStore() error: %v", err)
		}
		if store.Root() != root {
			t.Errorf("Root() = %q, want %q", store.Root(), root)
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			t.Errorf("root directory was not created: %v", err)
		}
	})

	t.Run("rejects an empty root", func(t *testing.T) {
		if _, err := NewStore(""); err == nil {
			t.Error("NewStore(\"\") succeeded, want error")
		}
	})
}

func TestStorePaths(t *testing.T) {
	store := newTestStore(t)
	dir := store.EffortDir("auth-refactor")

	if dir != filepath.Join(store.Root(), "auth-refactor") {
		t.Errorf("EffortDir() = %q", dir)
	}
	if got := store.SignalsDir("auth-refactor"); got != filepath.Join(dir, "signals") {
		t.Errorf("SignalsDir() = %q", got)
	}
	if got := store.IssuesDir("auth-refactor"); got != filepath.Join(dir, "issues") {
		t.Errorf("IssuesDir() = %q", got)
	}
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("persists a new effort with its signal directory", func(t *testing.T) {
		store := newTestStore(t)
		e := NewEffort("auth-refactor", now)

		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if !store.Exists("auth-refactor") {
			t.Error("Exists() = false after Create")
		}
		if info, err := os.Stat(store.SignalsDir("auth-refactor")); err != nil || !info.IsDir() {
			t.Errorf("signals directory missing: %v", err)
		}
	})

	t.Run("rejects a duplicate effort", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.Create(ctx, NewEffort("auth-refactor", now)); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		err := store.Create(ctx, NewEffort("auth-refactor", now))
		var exists *errors.AlreadyExistsError
		if !errors.As(err, &exists) {
			t.Errorf("Create() duplicate error = %v, want AlreadyExistsError", err)
		}
	})

	t.Run("rejects an invalid effort id", func(t *testing.T) {
		store := newTestStore(t)
		err := store.Create(ctx, NewEffort("bad/id", now))
		if err == nil {
			t.Error("Create() with invalid id succeeded, want error")
		}
	})
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("round-trips the document", func(t *testing.T) {
		store := newTestStore(t)
		e := NewEffort("auth-refactor", now)
		if _, err := e.AddSession("1.1", "Extract token store", now); err != nil {
			t.Fatal(err)
		}
		e.LastSignal = "20250601120000.000001-1234-000001-session-started.json"
		e.RecordChange(NewStateChange(now, ActionEffortInit))
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error: %v", err)
		}

		got, err := store.Load(ctx, "auth-refactor")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if got.ID != "auth-refactor" || got.Status != StatusPlanning {
			t.Errorf("loaded %q/%q", got.ID, got.Status)
		}
		if got.Session("1.1") == nil || got.Session("1.1").Title != "Extract token store" {
			t.Errorf("session 1.1 did not round-trip: %+v", got.Sessions)
		}
		if got.LastSignal != e.LastSignal {
			t.Errorf("LastSignal = %q, want %q", got.LastSignal, e.LastSignal)
		}
		if len(got.History) != 1 {
			t.Errorf("history length = %d, want 1", len(got.History))
		}
	})

	t.Run("missing effort is a not-found error", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.Load(ctx, "nope")
		if !errors.Is(err, errors.ErrEffortNotFound) {
			t.Errorf("Load() error = %v, want effort not found", err)
		}
	})

	t.Run("unparseable document is malformed data", func(t *testing.T) {
		store := newTestStore(t)
		dir := store.EffortDir("broken")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := store.Load(ctx, "broken")
		var malformed *errors.MalformedDataError
		if !errors.As(err, &malformed) {
			t.Errorf("Load() error = %v, want MalformedDataError", err)
		}
	})

	t.Run("invariant-violating document is malformed data", func(t *testing.T) {
		store := newTestStore(t)
		dir := store.EffortDir("broken")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		doc := map[string]any{
			"effort_id":  "broken",
			"status":     "completed",
			"sessions":   map[string]any{},
			"started_at": now,
			"updated_at": now,
			"history":    []any{},
		}
		data, err := json.Marshal(doc)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "state.json"), data, 0644); err != nil {
			t.Fatal(err)
		}

		_, err = store.Load(ctx, "broken")
		var malformed *errors.MalformedDataError
		if !errors.As(err, &malformed) {
			t.Errorf("Load() error = %v, want MalformedDataError", err)
		}
	})
}

func TestStoreLoadOrInit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns a fresh document for a missing effort", func(t *testing.T) {
		store := newTestStore(t)
		e, err := store.LoadOrInit(ctx, "not-yet-started")
		if err != nil {
			t.Fatalf("LoadOrInit() error: %v", err)
		}
		if e.ID != "not-yet-started" || e.Status != StatusPlanning {
			t.Errorf("fresh document = %q/%q", e.ID, e.Status)
		}
		if store.Exists("not-yet-started") {
			t.Error("LoadOrInit persisted the fresh document")
		}
	})

	t.Run("returns the stored document when present", func(t *testing.T) {
		store := newTestStore(t)
		e := NewEffort("auth-refactor", now)
		e.Status = StatusExecuting
		if err := store.Create(ctx, e); err != nil {
			t.Fatal(err)
		}

		got, err := store.LoadOrInit(ctx, "auth-refactor")
		if err != nil {
			t.Fatalf("LoadOrInit() error: %v", err)
		}
		if got.Status != StatusExecuting {
			t.Errorf("Status = %q, want executing", got.Status)
		}
	})

	t.Run("still surfaces malformed documents", func(t *testing.T) {
		store := newTestStore(t)
		dir := store.EffortDir("broken")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := store.LoadOrInit(ctx, "broken"); err == nil {
			t.Error("LoadOrInit() on malformed document succeeded, want error")
		}
	})
}

func TestStoreSaveWithVersion(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("version zero creates a new document", func(t *testing.T) {
		store := newTestStore(t)
		v, err := store.SaveWithVersion(ctx, NewEffort("auth-refactor", now), 0)
		if err != nil {
			t.Fatalf("SaveWithVersion() error: %v", err)
		}
		if v == 0 {
			t.Error("SaveWithVersion() returned version 0")
		}
	})

	t.Run("version zero fails when the document exists", func(t *testing.T) {
		store := newTestStore(t)
		if _, err := store.SaveWithVersion(ctx, NewEffort("auth-refactor", now), 0); err != nil {
			t.Fatal(err)
		}
		_, err := store.SaveWithVersion(ctx, NewEffort("auth-refactor", now), 0)
		var exists *errors.AlreadyExistsError
		if !errors.As(err, &exists) {
			t.Errorf("error = %v, want AlreadyExistsError", err)
		}
	})

	t.Run("matching version saves and returns a new one", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.Create(ctx, NewEffort("auth-refactor", now)); err != nil {
			t.Fatal(err)
		}

		e, v, err := store.LoadWithVersion(ctx, "auth-refactor")
		if err != nil {
			t.Fatalf("LoadWithVersion() error: %v", err)
		}
		e.Status = StatusExecuting
		if _, err := store.SaveWithVersion(ctx, e, v); err != nil {
			t.Fatalf("SaveWithVersion() error: %v", err)
		}

		got, err := store.Load(ctx, "auth-refactor")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != StatusExecuting {
			t.Errorf("Status = %q, want executing", got.Status)
		}
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.Create(ctx, NewEffort("auth-refactor", now)); err != nil {
			t.Fatal(err)
		}

		e, v, err := store.LoadWithVersion(ctx, "auth-refactor")
		if err != nil {
			t.Fatal(err)
		}

		// Another writer moves the document forward.
		stamp := time.Now().Add(time.Hour)
		path := filepath.Join(store.EffortDir("auth-refactor"), "state.json")
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}

		if _, err := store.SaveWithVersion(ctx, e, v); !errors.Is(err, errors.ErrStaleState) {
			t.Errorf("SaveWithVersion() error = %v, want stale state", err)
		}
	})

	t.Run("nonzero version on a missing document is not found", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.SaveWithVersion(ctx, NewEffort("ghost", now), 42)
		if !errors.Is(err, errors.ErrEffortNotFound) {
			t.Errorf("error = %v, want effort not found", err)
		}
	})
}

func TestStoreSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("overwrites unconditionally", func(t *testing.T) {
		store := newTestStore(t)
		e := NewEffort("auth-refactor", now)
		if err := store.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
		e.Status = StatusPaused
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save() error: %v", err)
		}

		got, err := store.Load(ctx, "auth-refactor")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != StatusPaused {
			t.Errorf("Status = %q, want paused", got.Status)
		}
	})

	t.Run("rejects an invariant-violating document", func(t *testing.T) {
		store := newTestStore(t)
		e := NewEffort("auth-refactor", now)
		e.Status = StatusCompleted
		if err := store.Save(ctx, e); err == nil {
			t.Error("Save() of invalid document succeeded, want error")
		}
	})
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty root lists nothing", func(t *testing.T) {
		store := newTestStore(t)
		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("List() = %v, want empty", ids)
		}
	})

	t.Run("lists efforts sorted, skipping stray entries", func(t *testing.T) {
		store := newTestStore(t)
		for _, id := range []string{"zeta", "alpha", "mid"} {
			if err := store.Create(ctx, NewEffort(id, now)); err != nil {
				t.Fatal(err)
			}
		}
		// A stray file and a directory without a state document.
		if err := os.WriteFile(filepath.Join(store.Root(), "notes.txt"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(filepath.Join(store.Root(), "empty-dir"), 0755); err != nil {
			t.Fatal(err)
		}

		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List() error: %v", err)
		}
		want := []string{"alpha", "mid", "zeta"}
		if len(ids) != len(want) {
			t.Fatalf("List() = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("List() = %v, want %v", ids, want)
			}
		}
	})
}

func TestAtomicWriteFile(t *testing.T) {
	t.Run("writes and overwrites", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "doc.json")

		if err := atomicWriteFile(path, []byte("one"), 0644); err != nil {
			t.Fatalf("atomicWriteFile() error: %v", err)
		}
		if err := atomicWriteFile(path, []byte("two"), 0644); err != nil {
			t.Fatalf("atomicWriteFile() overwrite error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "two" {
			t.Errorf("content = %q, want %q", data, "two")
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		if err := atomicWriteFile(filepath.Join(dir, "doc.json"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(leftovers) != 0 {
			t.Errorf("temp files left behind: %v", leftovers)
		}
	})
}
