package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

// LinkStore keeps links in the dashlink_links table. Every query is scoped
// to a partition; positions stay contiguous from 0 within a partition.
type LinkStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLinkStore(db *gorm.DB) *LinkStore {
	return &LinkStore{db: db, now: time.Now}
}

// IconRef is one icon blob referenced by a link.
type IconRef struct {
	UserID   *string
	IconPath string
}

func inPartition(p domain.Partition) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if p.IsGlobal() {
			return tx.Where("user_id IS NULL")
		}
		return tx.Where("user_id = ?", p.UserID())
	}
}

func ordered(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC").Order("id ASC")
}

func (s *LinkStore) FindAll(ctx context.Context, p domain.Partition) ([]*domain.Link, error) {
	var links []*domain.Link
	if err := s.db.WithContext(ctx).Scopes(inPartition(p), ordered).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("find links: %w", err)
	}
	return links, nil
}

func (s *LinkStore) FindEnabled(ctx context.Context, p domain.Partition) ([]*domain.Link, error) {
	var links []*domain.Link
	err := s.db.WithContext(ctx).
		Scopes(inPartition(p), ordered).
		Where("enabled = ?", true).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("find enabled links: %w", err)
	}
	return links, nil
}

// FindByID fails with NotFound when the link is absent or belongs to
// another partition.
func (s *LinkStore) FindByID(ctx context.Context, p domain.Partition, id int64) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Scopes(inPartition(p)).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("Link not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find link %d: %w", id, err)
	}
	return &link, nil
}

func (s *LinkStore) Count(ctx context.Context, p domain.Partition) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Link{}).Scopes(inPartition(p)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}

// MaxPosition returns the highest position, -1 for an empty partition.
func (s *LinkStore) MaxPosition(ctx context.Context, p domain.Partition) (int, error) {
	var top int
	err := s.db.WithContext(ctx).Model(&domain.Link{}).
		Scopes(inPartition(p)).
		Select("COALESCE(MAX(position), -1)").
		Scan(&top).Error
	if err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	return top, nil
}

// Create inserts link at link.Position (clamped to the partition size),
// shifting the links at or after that slot.
func (s *LinkStore) Create(ctx context.Context, link *domain.Link) error {
	p := link.Partition()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockPartition(tx, p)
		if err != nil {
			return err
		}

		pos := link.Position
		if pos < 0 {
			pos = 0
		}
		if pos > len(rows) {
			pos = len(rows)
		}
		link.Position = pos

		if pos < len(rows) {
			err := tx.Model(&domain.Link{}).
				Scopes(inPartition(p)).
				Where("position >= ?", pos).
				Update("position", gorm.Expr("position + 1")).Error
			if err != nil {
				return fmt.Errorf("shift positions: %w", err)
			}
		}

		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("create link: %w", err)
		}
		return s.resequence(tx, p, nil)
	})
}

// Update persists every column of link and bumps updated_at.
func (s *LinkStore) Update(ctx context.Context, link *domain.Link) error {
	link.UpdatedAt = s.now()
	res := s.db.WithContext(ctx).Model(link).
		Scopes(inPartition(link.Partition())).
		Select("*").Omit("id", "created_at", "user_id").
		Updates(link)
	if res.Error != nil {
		return fmt.Errorf("update link %d: %w", link.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("Link not found")
	}
	return nil
}

// DeleteByID removes one link of the partition and closes the gap it
// leaves in the ordering.
func (s *LinkStore) DeleteByID(ctx context.Context, p domain.Partition, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPartition(tx, p); err != nil {
			return err
		}
		res := tx.Scopes(inPartition(p)).Where("id = ?", id).Delete(&domain.Link{})
		if res.Error != nil {
			return fmt.Errorf("delete link %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("Link not found")
		}
		return s.resequence(tx, p, nil)
	})
}

// DeleteAll removes every link of the partition and returns them.
func (s *LinkStore) DeleteAll(ctx context.Context, p domain.Partition) ([]*domain.Link, error) {
	var removed []*domain.Link
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(inPartition(p)).Find(&removed).Error; err != nil {
			return fmt.Errorf("list links: %w", err)
		}
		if err := tx.Scopes(inPartition(p)).Delete(&domain.Link{}).Error; err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Reorder assigns positions following ids. Unknown ids, ids of other
// partitions and duplicates are skipped; links missing from ids keep their
// relative order after the listed ones.
func (s *LinkStore) Reorder(ctx context.Context, p domain.Partition, ids []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.resequence(tx, p, ids)
	})
}

// Resequence rewrites positions to 0..N-1 keeping the current order.
func (s *LinkStore) Resequence(ctx context.Context, p domain.Partition) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.resequence(tx, p, nil)
	})
}

// IconRefs lists every stored icon across partitions.
func (s *LinkStore) IconRefs(ctx context.Context) ([]IconRef, error) {
	var refs []IconRef
	err := s.db.WithContext(ctx).Model(&domain.Link{}).
		Select("user_id", "icon_path").
		Where("icon_path IS NOT NULL AND icon_path <> ''").
		Scan(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("list icon refs: %w", err)
	}
	return refs, nil
}

type slot struct {
	ID       int64
	Position int
}

func lockPartition(tx *gorm.DB, p domain.Partition) ([]slot, error) {
	var rows []slot
	err := tx.Model(&domain.Link{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(inPartition(p), ordered).
		Select("id", "position").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lock partition %s: %w", p, err)
	}
	return rows, nil
}

func (s *LinkStore) resequence(tx *gorm.DB, p domain.Partition, first []int64) error {
	rows, err := lockPartition(tx, p)
	if err != nil {
		return err
	}

	current := make(map[int64]int, len(rows))
	for _, r := range rows {
		current[r.ID] = r.Position
	}

	order := make([]int64, 0, len(rows))
	listed := make(map[int64]bool, len(first))
	for _, id := range first {
		if _, ok := current[id]; !ok || listed[id] {
			continue
		}
		listed[id] = true
		order = append(order, id)
	}
	for _, r := range rows {
		if !listed[r.ID] {
			order = append(order, r.ID)
		}
	}

	now := s.now()
	for pos, id := range order {
		if current[id] == pos && !listed[id] {
			continue
		}
		err := tx.Model(&domain.Link{}).
			Where("id = ?", id).
			Updates(map[string]any{"position": pos, "updated_at": now}).Error
		if err != nil {
			return fmt.Errorf("set position of link %d: %w", id, err)
		}
	}
	return nil
}
