package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// SeedSource yields the records of the seed file.
type SeedSource interface {
	Load() ([]domain.ImportRecord, error)
}

// SeedImporter creates the seed links. Duplicates are skipped, so
// reloading the same file is a no-op.
type SeedImporter interface {
	Import(ctx context.Context, records []domain.ImportRecord) (*domain.ImportResult, error)
}

// SeedReloader imports the seed file at start, on every tick and on
// manual trigger.
type SeedReloader struct {
	source        SeedSource
	importer      SeedImporter
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

func NewSeedReloader(
	source SeedSource,
	importer SeedImporter,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		source:        source,
		importer:      importer,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once and then keeps reloading in the background. A failing
// first import is logged and does not prevent startup.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		sr.logger.Warn("initial seed import failed", logger.Error(err))
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed links", logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed reload triggered")
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed links", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (sr *SeedReloader) Stop() {
	close(sr.stopCh)
}

// Reload reads the seed file and imports its links as global links.
func (sr *SeedReloader) Reload(ctx context.Context) error {
	records, err := sr.source.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed links: %w", err)
	}

	res, err := sr.importer.Import(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to import seed links: %w", err)
	}

	for _, msg := range res.Errors {
		sr.logger.Warn("seed link not imported cleanly", logger.String("detail", msg))
	}
	sr.logger.Info("seed links reloaded",
		logger.Int("records", len(records)),
		logger.Int("imported", res.Imported),
		logger.Int("skipped", res.Skipped))
	return nil
}
