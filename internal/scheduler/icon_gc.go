package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/blob"
	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/service"
	"github.com/MrSnakeDoc/dashlink/internal/store/sqlstore"
)

// DefaultIconGrace keeps fresh blobs whose link row may not be committed
// yet.
const DefaultIconGrace = time.Hour

type IconRefLister interface {
	IconRefs(ctx context.Context) ([]sqlstore.IconRef, error)
}

type BlobLister interface {
	List(prefix string) ([]blob.Object, error)
	Delete(key string) error
}

// IconCollector removes icon blobs no link references anymore.
type IconCollector struct {
	links    IconRefLister
	blobs    BlobLister
	logger   logger.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

func NewIconCollector(
	links IconRefLister,
	blobs BlobLister,
	log logger.Logger,
	interval time.Duration,
	grace time.Duration,
) *IconCollector {
	if grace == 0 {
		grace = DefaultIconGrace
	}

	return &IconCollector{
		links:    links,
		blobs:    blobs,
		logger:   log,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

func (gc *IconCollector) Start(ctx context.Context) error {
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial icon collection failed", logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("icon collection failed", logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (gc *IconCollector) Stop() {
	close(gc.stopCh)
}

// Collect deletes unreferenced blobs older than the grace period and
// returns how many were removed.
func (gc *IconCollector) Collect(ctx context.Context) (int, error) {
	refs, err := gc.links.IconRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list icon references: %w", err)
	}

	referenced := make(map[string]bool, len(refs))
	for _, r := range refs {
		p := domain.Global()
		if r.UserID != nil {
			p = domain.OwnedBy(*r.UserID)
		}
		referenced[service.IconKey(p, r.IconPath)] = true
	}

	now := gc.now()
	deleted := 0
	for _, folder := range []string{service.GlobalIconFolder, service.UserIconFolder} {
		objs, err := gc.blobs.List(folder)
		if err != nil {
			return deleted, fmt.Errorf("list %s: %w", folder, err)
		}
		for _, o := range objs {
			if referenced[o.Key] || now.Sub(o.ModTime) < gc.grace {
				continue
			}
			if err := gc.blobs.Delete(o.Key); err != nil {
				gc.logger.Warn("failed to delete orphan icon", logger.String("key", o.Key), logger.Error(err))
				continue
			}
			gc.logger.Info("garbage collected orphan icon",
				logger.String("key", o.Key),
				logger.String("age", now.Sub(o.ModTime).String()))
			deleted++
		}
	}

	if deleted > 0 {
		gc.logger.Info("icon collection completed", logger.Int("deleted", deleted))
	} else {
		gc.logger.Debug("no icons to garbage collect")
	}
	return deleted, nil
}
