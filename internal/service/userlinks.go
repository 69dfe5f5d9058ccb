package service

import (
	"context"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// UserLinkService manages the private links of individual users under the
// quota configured in settings.
type UserLinkService struct {
	c        catalog
	settings *SettingsService
}

func NewUserLinkService(store LinkStore, icons *IconService, settings *SettingsService, log logger.Logger) *UserLinkService {
	return &UserLinkService{
		c:        catalog{store: store, icons: icons, log: log, userLinks: true},
		settings: settings,
	}
}

// owned maps a user id to its partition. An empty id would alias the
// global partition and is refused.
func owned(userID string) (domain.Partition, error) {
	if userID == "" {
		return domain.Partition{}, domain.Forbidden("Authentication required")
	}
	return domain.OwnedBy(userID), nil
}

// Enabled reports the admin feature toggle.
func (s *UserLinkService) Enabled(ctx context.Context) (bool, error) {
	return s.settings.UserLinksEnabled(ctx)
}

func (s *UserLinkService) Limit(ctx context.Context) (int, error) {
	return s.settings.UserLinkLimit(ctx)
}

func (s *UserLinkService) List(ctx context.Context, userID string) ([]*domain.Link, error) {
	p, err := owned(userID)
	if err != nil {
		return nil, err
	}
	return s.c.store.FindAll(ctx, p)
}

func (s *UserLinkService) Count(ctx context.Context, userID string) (int64, error) {
	p, err := owned(userID)
	if err != nil {
		return 0, err
	}
	return s.c.store.Count(ctx, p)
}

func (s *UserLinkService) Get(ctx context.Context, userID string, id int64) (*domain.Link, error) {
	p, err := owned(userID)
	if err != nil {
		return nil, err
	}
	return s.c.store.FindByID(ctx, p, id)
}

// Create appends a link to the user's list; it fails with QuotaExceeded
// once the list holds the configured limit.
func (s *UserLinkService) Create(ctx context.Context, userID string, in domain.LinkInput) (*domain.Link, error) {
	p, err := owned(userID)
	if err != nil {
		return nil, err
	}

	limit, err := s.settings.UserLinkLimit(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.c.store.Count(ctx, p)
	if err != nil {
		return nil, err
	}
	if n >= int64(limit) {
		return nil, domain.QuotaExceeded("Link limit reached. Maximum %d links allowed.", limit)
	}

	top, err := s.c.store.MaxPosition(ctx, p)
	if err != nil {
		return nil, err
	}
	pos := top + 1
	in.Position = &pos
	return s.c.create(ctx, p, in)
}

func (s *UserLinkService) Update(ctx context.Context, userID string, id int64, patch domain.LinkPatch) (*domain.Link, error) {
	p, err := owned(userID)
	if err != nil {
		return nil, err
	}
	return s.c.update(ctx, p, id, patch)
}

func (s *UserLinkService) Delete(ctx context.Context, userID string, id int64) error {
	p, err := owned(userID)
	if err != nil {
		return err
	}
	return s.c.remove(ctx, p, id)
}

func (s *UserLinkService) Reorder(ctx context.Context, userID string, ids []int64) error {
	p, err := owned(userID)
	if err != nil {
		return err
	}
	return s.c.reorder(ctx, p, ids)
}

// Import creates at most limit-count links; the rest are reported as
// skipped.
func (s *UserLinkService) Import(ctx context.Context, userID string, records []domain.ImportRecord) (*domain.ImportResult, error) {
	p, err := owned(userID)
	if err != nil {
		return nil, err
	}

	limit, err := s.settings.UserLinkLimit(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.c.store.Count(ctx, p)
	if err != nil {
		return nil, err
	}
	available := max(limit-int(n), 0)
	return s.c.importBatch(ctx, p, records, available)
}

func (s *UserLinkService) Export(ctx context.Context, userID string) ([]*domain.Link, error) {
	return s.List(ctx, userID)
}

// DeleteAll removes every link and icon of the user and returns the
// number of links removed.
func (s *UserLinkService) DeleteAll(ctx context.Context, userID string) (int, error) {
	p, err := owned(userID)
	if err != nil {
		return 0, err
	}
	removed, err := s.c.store.DeleteAll(ctx, p)
	if err != nil {
		return 0, err
	}
	if err := s.c.icons.PurgePartition(p); err != nil {
		s.c.log.Warn("failed to purge user icons", logger.String("partition", p.String()), logger.Error(err))
	}
	s.c.log.Info("user links purged", logger.String("partition", p.String()), logger.Int("links", len(removed)))
	return len(removed), nil
}
