package service

import (
	"context"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// LinkService manages the global, admin curated links.
type LinkService struct {
	c catalog
}

func NewLinkService(store LinkStore, icons *IconService, log logger.Logger) *LinkService {
	return &LinkService{c: catalog{store: store, icons: icons, log: log}}
}

// ListVisibleFor returns the enabled links a member of userGroups may see.
func (s *LinkService) ListVisibleFor(ctx context.Context, userGroups []string) ([]*domain.Link, error) {
	links, err := s.c.store.FindEnabled(ctx, domain.Global())
	if err != nil {
		return nil, err
	}
	return domain.VisibleTo(links, userGroups), nil
}

// GetVisible returns link id when a member of userGroups may see it.
// Hidden links look missing.
func (s *LinkService) GetVisible(ctx context.Context, id int64, userGroups []string) (*domain.Link, error) {
	link, err := s.c.store.FindByID(ctx, domain.Global(), id)
	if err != nil {
		return nil, err
	}
	if len(domain.VisibleTo([]*domain.Link{link}, userGroups)) == 0 {
		return nil, domain.NotFound("Link not found")
	}
	return link, nil
}

func (s *LinkService) List(ctx context.Context) ([]*domain.Link, error) {
	return s.c.store.FindAll(ctx, domain.Global())
}

func (s *LinkService) Get(ctx context.Context, id int64) (*domain.Link, error) {
	return s.c.store.FindByID(ctx, domain.Global(), id)
}

func (s *LinkService) Create(ctx context.Context, in domain.LinkInput) (*domain.Link, error) {
	return s.c.create(ctx, domain.Global(), in)
}

func (s *LinkService) Update(ctx context.Context, id int64, patch domain.LinkPatch) (*domain.Link, error) {
	return s.c.update(ctx, domain.Global(), id, patch)
}

func (s *LinkService) Delete(ctx context.Context, id int64) error {
	return s.c.remove(ctx, domain.Global(), id)
}

func (s *LinkService) Reorder(ctx context.Context, ids []int64) error {
	return s.c.reorder(ctx, domain.Global(), ids)
}

// Import appends the records that duplicate no existing title or url.
func (s *LinkService) Import(ctx context.Context, records []domain.ImportRecord) (*domain.ImportResult, error) {
	return s.c.importBatch(ctx, domain.Global(), records, -1)
}

func (s *LinkService) Export(ctx context.Context) ([]*domain.Link, error) {
	return s.List(ctx)
}
