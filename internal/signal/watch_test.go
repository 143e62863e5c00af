package signal

import (
	"context"
	"testing"
	"time"
)

func collect(t *testing.T, ch <-chan *Signal, want int, timeout time.Duration) []*Signal {
	t.Helper()
	var got []*Signal
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case sig, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d signals, want %d", len(got), want)
			}
			got = append(got, sig)
		case <-deadline:
			t.Fatalf("timed out after %d signals, want %d", len(got), want)
		}
	}
	return got
}

func TestWatch(t *testing.T) {
	t.Run("delivers newly appended signals", func(t *testing.T) {
		log := newTestLog(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := log.Watch(ctx, WatchOptions{Debounce: 10 * time.Millisecond})
		if err != nil {
			t.Fatalf("Watch() error: %v", err)
		}

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		first := emit(t, log, NewSessionStarted("1.1", "b"), base)
		second := emit(t, log, NewSessionDone("1.1", "r1", ""), base.Add(time.Second))

		got := collect(t, ch, 2, 5*time.Second)
		if got[0].ID != first.ID || got[1].ID != second.ID {
			t.Errorf("delivered [%s %s], want [%s %s]", got[0].ID, got[1].ID, first.ID, second.ID)
		}
	})

	t.Run("skips signals present before the watch", func(t *testing.T) {
		log := newTestLog(t)
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		emit(t, log, NewSessionStarted("1.1", "b"), base)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := log.Watch(ctx, WatchOptions{Debounce: 10 * time.Millisecond})
		if err != nil {
			t.Fatalf("Watch() error: %v", err)
		}

		fresh := emit(t, log, NewSessionDone("1.1", "r1", ""), base.Add(time.Second))
		got := collect(t, ch, 1, 5*time.Second)
		if got[0].ID != fresh.ID {
			t.Errorf("delivered %s, want %s", got[0].ID, fresh.ID)
		}
	})

	t.Run("resumes from an explicit watermark", func(t *testing.T) {
		log := newTestLog(t)
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		first := emit(t, log, NewSessionStarted("1.1", "b"), base)
		second := emit(t, log, NewSessionDone("1.1", "r1", ""), base.Add(time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := log.Watch(ctx, WatchOptions{From: first.Filename(), Debounce: 10 * time.Millisecond})
		if err != nil {
			t.Fatalf("Watch() error: %v", err)
		}

		got := collect(t, ch, 1, 5*time.Second)
		if got[0].ID != second.ID {
			t.Errorf("delivered %s, want %s", got[0].ID, second.ID)
		}
	})

	t.Run("closes the channel on cancel", func(t *testing.T) {
		log := newTestLog(t)
		ctx, cancel := context.WithCancel(context.Background())

		ch, err := log.Watch(ctx, WatchOptions{Debounce: 10 * time.Millisecond})
		if err != nil {
			t.Fatalf("Watch() error: %v", err)
		}
		cancel()

		select {
		case _, ok := <-ch:
			if ok {
				t.Error("received a signal after cancel, want closed channel")
			}
		case <-time.After(5 * time.Second):
			t.Error("channel not closed after cancel")
		}
	})

	t.Run("polling catches missed events", func(t *testing.T) {
		log := newTestLog(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := log.Watch(ctx, WatchOptions{
			Debounce:     10 * time.Millisecond,
			PollInterval: 50 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("Watch() error: %v", err)
		}

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		emit(t, log, NewSessionStarted("1.1", "b"), base)
		collect(t, ch, 1, 5*time.Second)
	})
}
