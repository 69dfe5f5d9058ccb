package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

type fakeSource struct {
	records []domain.ImportRecord
	err     error
}

func (f fakeSource) Load() ([]domain.ImportRecord, error) { return f.records, f.err }

type countingImporter struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (c *countingImporter) Import(_ context.Context, records []domain.ImportRecord) (*domain.ImportResult, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.done != nil {
		c.done <- struct{}{}
	}
	return &domain.ImportResult{Imported: len(records), Errors: []string{}}, nil
}

func TestSeedReloader_Reload(t *testing.T) {
	log := logger.New("error", false)
	imp := &countingImporter{}
	src := fakeSource{records: []domain.ImportRecord{{Title: "A", URL: "https://a.example.com"}}}

	sr := NewSeedReloader(src, imp, log, time.Hour, make(chan struct{}))
	if err := sr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if imp.calls != 1 {
		t.Errorf("Import called %d times, want 1", imp.calls)
	}

	broken := NewSeedReloader(fakeSource{err: errors.New("boom")}, imp, log, time.Hour, make(chan struct{}))
	if err := broken.Reload(context.Background()); err == nil {
		t.Error("Reload() with failing source should return error")
	}
}

func TestSeedReloader_ManualTrigger(t *testing.T) {
	log := logger.New("error", false)
	imp := &countingImporter{done: make(chan struct{}, 4)}
	trigger := make(chan struct{}, 1)

	sr := NewSeedReloader(fakeSource{}, imp, log, time.Hour, trigger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sr.Stop()
	<-imp.done // initial import

	trigger <- struct{}{}
	select {
	case <-imp.done:
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger did not reload")
	}
}
