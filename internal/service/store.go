// Package service holds the link, icon and settings use cases. It talks
// to storage through the small interfaces below so tests can swap in
// in-memory implementations.
package service

import (
	"context"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/fetch"
)

// LinkStore is the partition-scoped link persistence.
type LinkStore interface {
	FindAll(ctx context.Context, p domain.Partition) ([]*domain.Link, error)
	FindEnabled(ctx context.Context, p domain.Partition) ([]*domain.Link, error)
	FindByID(ctx context.Context, p domain.Partition, id int64) (*domain.Link, error)
	Count(ctx context.Context, p domain.Partition) (int64, error)
	MaxPosition(ctx context.Context, p domain.Partition) (int, error)
	Create(ctx context.Context, link *domain.Link) error
	Update(ctx context.Context, link *domain.Link) error
	DeleteByID(ctx context.Context, p domain.Partition, id int64) error
	DeleteAll(ctx context.Context, p domain.Partition) ([]*domain.Link, error)
	Reorder(ctx context.Context, p domain.Partition, ids []int64) error
	Resequence(ctx context.Context, p domain.Partition) error
}

// SettingStore is a flat key/value store.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// BlobStore keeps icon files.
type BlobStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	DeletePrefix(prefix string) error
}

// Downloader fetches a remote icon.
type Downloader interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}
