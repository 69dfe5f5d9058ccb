package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/security"
)

const (
	msgNoQuotaLeft      = "Link limit reached. No more links can be imported."
	msgRemainingSkipped = "Link limit reached. Remaining links were skipped."
)

// importBatch creates the records that do not duplicate an existing link
// of p. available caps the number of creations; a negative value means no
// cap. Per-record failures are collected, never returned.
func (c *catalog) importBatch(ctx context.Context, p domain.Partition, records []domain.ImportRecord, available int) (*domain.ImportResult, error) {
	res := &domain.ImportResult{Errors: []string{}}

	if available == 0 {
		res.Skipped = len(records)
		res.Errors = append(res.Errors, msgNoQuotaLeft)
		return res, nil
	}

	existing, err := c.store.FindAll(ctx, p)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]bool, len(existing)+len(records))
	urls := make(map[string]bool, len(existing)+len(records))
	top := -1
	for _, l := range existing {
		titles[l.Title] = true
		urls[l.URL] = true
		top = max(top, l.Position)
	}

	for i, rec := range records {
		if available > 0 && res.Imported >= available {
			res.Skipped += len(records) - i
			res.Errors = append(res.Errors, msgRemainingSkipped)
			break
		}

		title := security.SanitizeText(rec.Title, domain.MaxTitleLength)
		if titles[title] || urls[strings.TrimSpace(rec.URL)] {
			res.Skipped++
			continue
		}

		in := rec.Input()
		pos := top + 1
		in.Position = &pos

		link, err := c.create(ctx, p, in)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to import link '%s': %s", rec.Title, domain.PublicMessage(err)))
			if domain.KindOf(err) == domain.KindInternal {
				c.log.Error("import record failed", logger.String("partition", p.String()), logger.Error(err))
			}
			continue
		}
		top = link.Position
		titles[link.Title] = true
		urls[link.URL] = true
		res.Imported++

		if rec.IconURL != "" {
			if _, err := c.icons.FetchAndStore(ctx, p, link.ID, rec.IconURL); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Link '%s' created but icon download failed: %s", rec.Title, domain.PublicMessage(err)))
				c.log.Warn("import icon download failed",
					logger.Int64("link_id", link.ID),
					logger.String("icon_url", rec.IconURL),
					logger.Error(err))
			}
		}
	}

	if res.Imported > 0 {
		if err := c.store.Resequence(ctx, p); err != nil {
			return nil, err
		}
	}

	c.log.Info("links imported",
		logger.String("partition", p.String()),
		logger.Int("imported", res.Imported),
		logger.Int("skipped", res.Skipped),
		logger.Int("errors", len(res.Errors)))
	return res, nil
}
