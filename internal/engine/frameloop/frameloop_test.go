package frameloop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunStopsOnCancelBetweenFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	ticks := 0

	l := &Loop{
		Tick: func(time.Duration) error {
			ticks++
			if ticks == 3 {
				cancel()
				// The tick that cancelled still finishes.
				order = append(order, "tick-done")
				return nil
			}
			order = append(order, "tick")
			return nil
		},
		Sync: func() { order = append(order, "sync") },
	}

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"tick", "sync", "tick", "sync", "tick-done", "sync"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if l.Frames() != 3 {
		t.Errorf("Frames = %d, want 3", l.Frames())
	}
}

func TestRunReturnsTickError(t *testing.T) {
	boom := errors.New("boom")
	synced := false
	l := &Loop{
		Tick: func(time.Duration) error { return boom },
		Sync: func() { synced = true },
	}
	if err := l.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run = %v, want %v", err, boom)
	}
	if synced {
		t.Error("Sync ran after a failed tick")
	}
}

func TestRunErrStopIsClean(t *testing.T) {
	n := 0
	l := &Loop{Tick: func(time.Duration) error {
		n++
		if n == 3 {
			return ErrStop
		}
		return nil
	}}
	if err := l.Run(context.Background()); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
	if l.Frames() != 2 {
		t.Errorf("Frames = %d, want 2", l.Frames())
	}
}

func TestRunPassesFrameDelta(t *testing.T) {
	clock := time.Unix(0, 0)
	var deltas []time.Duration
	l := &Loop{
		Now: func() time.Time {
			clock = clock.Add(16 * time.Millisecond)
			return clock
		},
		Tick: func(dt time.Duration) error {
			deltas = append(deltas, dt)
			if len(deltas) == 3 {
				return ErrStop
			}
			return nil
		},
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, dt := range deltas {
		if dt != 16*time.Millisecond {
			t.Errorf("frame %d: dt = %v, want 16ms", i, dt)
		}
	}
}
