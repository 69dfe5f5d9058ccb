package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
)

func TestCounterSweeper_Sweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	counter := ratelimit.NewMemoryCounter().WithClock(func() time.Time { return now })
	ctx := context.Background()

	if _, err := counter.Incr(ctx, "short", time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := counter.Incr(ctx, "long", time.Hour); err != nil {
		t.Fatal(err)
	}

	cs := NewCounterSweeper(counter, logger.New("error", false), time.Minute)
	if got := cs.Sweep(); got != 0 {
		t.Fatalf("nothing expired yet, removed %d", got)
	}

	now = now.Add(2 * time.Minute)
	if got := cs.Sweep(); got != 1 {
		t.Fatalf("removed %d counters, want 1", got)
	}
	if n, _ := counter.Get(ctx, "long"); n != 1 {
		t.Errorf("long-lived counter = %d, want 1", n)
	}
}
