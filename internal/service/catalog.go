package service

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/security"
)

// catalog implements the operations global and user links share. Callers
// pick the partition; the catalog never crosses it.
type catalog struct {
	store LinkStore
	icons *IconService
	log   logger.Logger
	// userLinks strips groups: private links are never group restricted.
	userLinks bool
}

// build validates in and returns an unsaved link of partition p.
func (c *catalog) build(p domain.Partition, in domain.LinkInput) (*domain.Link, error) {
	url, err := security.NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}

	title := security.SanitizeText(in.Title, domain.MaxTitleLength)
	if title == "" {
		return nil, domain.Invalid("Title cannot be empty")
	}

	target := domain.TargetBlank
	if in.Target != nil && *in.Target != "" {
		target = *in.Target
	}
	if err := security.ValidateTarget(target); err != nil {
		return nil, err
	}

	groups := domain.Groups{}
	if !c.userLinks && len(in.Groups) > 0 {
		if err := security.ValidateGroups(in.Groups); err != nil {
			return nil, err
		}
		groups = dedupe(in.Groups)
	}

	pos := 0
	if in.Position != nil {
		pos = *in.Position
	}

	return &domain.Link{
		Title:       title,
		URL:         url,
		Description: security.SanitizeOptional(in.Description, domain.MaxDescriptionLength),
		Target:      target,
		Groups:      groups,
		Position:    pos,
		Enabled:     in.Enabled.Bool(true),
		UserID:      p.Owner(),
	}, nil
}

func dedupe(in []string) domain.Groups {
	seen := make(map[string]bool, len(in))
	out := make(domain.Groups, 0, len(in))
	for _, g := range in {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func (c *catalog) create(ctx context.Context, p domain.Partition, in domain.LinkInput) (*domain.Link, error) {
	link, err := c.build(p, in)
	if err != nil {
		return nil, err
	}
	if err := c.store.Create(ctx, link); err != nil {
		return nil, err
	}
	c.log.Info("link created",
		logger.String("partition", p.String()),
		logger.Int64("link_id", link.ID),
		logger.Int("position", link.Position))
	return link, nil
}

// update applies the supplied fields of patch. A supplied position moves
// the link to that slot within its partition.
func (c *catalog) update(ctx context.Context, p domain.Partition, id int64, patch domain.LinkPatch) (*domain.Link, error) {
	link, err := c.store.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return link, nil
	}

	if patch.Title != nil {
		title := security.SanitizeText(*patch.Title, domain.MaxTitleLength)
		if title == "" {
			return nil, domain.Invalid("Title cannot be empty")
		}
		link.Title = title
	}
	if patch.URL != nil {
		url, err := security.NormalizeURL(*patch.URL)
		if err != nil {
			return nil, err
		}
		link.URL = url
	}
	if patch.Description.Set {
		link.Description = security.SanitizeOptional(patch.Description.Ptr(), domain.MaxDescriptionLength)
	}
	if patch.Target != nil {
		if err := security.ValidateTarget(*patch.Target); err != nil {
			return nil, err
		}
		link.Target = *patch.Target
	}
	if patch.Groups != nil && !c.userLinks {
		if err := security.ValidateGroups(*patch.Groups); err != nil {
			return nil, err
		}
		link.Groups = dedupe(*patch.Groups)
	}
	if patch.Enabled != nil {
		link.Enabled = bool(*patch.Enabled)
	}

	// the row keeps its slot here; moving happens through Reorder so the
	// partition stays contiguous
	if err := c.store.Update(ctx, link); err != nil {
		return nil, err
	}

	if patch.Position != nil && *patch.Position != link.Position {
		if err := c.move(ctx, p, link.ID, *patch.Position); err != nil {
			return nil, err
		}
		return c.store.FindByID(ctx, p, id)
	}
	return link, nil
}

func (c *catalog) move(ctx context.Context, p domain.Partition, id int64, to int) error {
	links, err := c.store.FindAll(ctx, p)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(links))
	for _, l := range links {
		if l.ID != id {
			ids = append(ids, l.ID)
		}
	}
	to = min(max(to, 0), len(ids))
	ids = append(ids[:to], append([]int64{id}, ids[to:]...)...)
	return c.store.Reorder(ctx, p, ids)
}

// remove drops the icon blob (failures are logged) and then the row.
func (c *catalog) remove(ctx context.Context, p domain.Partition, id int64) error {
	link, err := c.store.FindByID(ctx, p, id)
	if err != nil {
		return err
	}
	c.icons.Discard(link)
	if err := c.store.DeleteByID(ctx, p, id); err != nil {
		return err
	}
	c.log.Info("link deleted", logger.String("partition", p.String()), logger.Int64("link_id", id))
	return nil
}

func (c *catalog) reorder(ctx context.Context, p domain.Partition, ids []int64) error {
	if err := c.store.Reorder(ctx, p, ids); err != nil {
		return fmt.Errorf("reorder %s: %w", p, err)
	}
	return nil
}
