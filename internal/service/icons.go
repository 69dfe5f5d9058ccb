package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/MrSnakeDoc/dashlink/internal/blob"
	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/security"
)

const (
	MaxIconSize = 2 * 1024 * 1024

	GlobalIconFolder = "icons"
	UserIconFolder   = "user_icons"
)

const mimeSVG = "image/svg+xml"

var iconExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	mimeSVG:      "svg",
	"image/webp": "webp",
}

// IsIconMime reports whether mimeType may be stored as an icon.
func IsIconMime(mimeType string) bool {
	_, ok := iconExtensions[normalizeMime(mimeType)]
	return ok
}

func normalizeMime(v string) string {
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// IconFolder returns the blob folder of a partition. User folders are
// named after a hash of the user id.
func IconFolder(p domain.Partition) string {
	if p.IsGlobal() {
		return GlobalIconFolder
	}
	sum := sha256.Sum256([]byte(p.UserID()))
	return UserIconFolder + "/" + hex.EncodeToString(sum[:])[:16]
}

// IconKey is the blob key of filename within partition p.
func IconKey(p domain.Partition, filename string) string {
	return IconFolder(p) + "/" + filename
}

// IconService validates, stores and serves link icons.
type IconService struct {
	links   LinkStore
	blobs   BlobStore
	fetcher Downloader
	log     logger.Logger
	now     func() time.Time
}

func NewIconService(links LinkStore, blobs BlobStore, fetcher Downloader, log logger.Logger) *IconService {
	return &IconService{links: links, blobs: blobs, fetcher: fetcher, log: log, now: time.Now}
}

// Upload validates data against declaredMime and attaches it to the link.
// SVG documents are sanitized before the size check.
func (s *IconService) Upload(ctx context.Context, p domain.Partition, linkID int64, data []byte, declaredMime string) (*domain.Link, error) {
	declared := normalizeMime(declaredMime)
	ext, ok := iconExtensions[declared]
	if !ok {
		return nil, domain.Invalid("Invalid file type. Only images are allowed.")
	}

	data, err := checkIcon(data, declared)
	if err != nil {
		return nil, err
	}

	link, err := s.links.FindByID(ctx, p, linkID)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s%d_%d_%s.%s", security.IconPrefix, link.ID, s.now().Unix(), uuid.NewString()[:8], ext)
	if err := s.blobs.Put(IconKey(p, filename), data); err != nil {
		return nil, fmt.Errorf("store icon: %w", err)
	}

	previous := link.IconPath
	link.IconPath = &filename
	link.IconMimeType = &declared
	if err := s.links.Update(ctx, link); err != nil {
		s.removeBlob(p, filename)
		return nil, err
	}
	if previous != nil && *previous != "" {
		s.removeBlob(p, *previous)
	}

	s.log.Info("icon stored",
		logger.String("partition", p.String()),
		logger.Int64("link_id", link.ID),
		logger.String("mime", declared),
		logger.Int("bytes", len(data)))
	return link, nil
}

// checkIcon returns the bytes to store: the sanitized document for SVG,
// data unchanged otherwise.
func checkIcon(data []byte, declared string) ([]byte, error) {
	if len(data) == 0 {
		return nil, domain.Invalid("File is empty")
	}

	if declared == mimeSVG {
		if len(data) > MaxIconSize {
			return nil, domain.Invalid("File too large. Maximum size is 2MB.")
		}
		clean, err := security.SanitizeSVG(data)
		if err != nil {
			return nil, domain.Invalid("Invalid SVG file")
		}
		data = clean
	}

	if len(data) > MaxIconSize {
		return nil, domain.Invalid("File too large. Maximum size is 2MB.")
	}

	if !mimetype.Detect(data).Is(declared) {
		return nil, domain.Invalid("File content does not match its type")
	}

	if declared != mimeSVG {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
			return nil, domain.Invalid("File is not a valid image")
		}
	}
	return data, nil
}

// FetchAndStore downloads rawURL and stores it as the link's icon.
func (s *IconService) FetchAndStore(ctx context.Context, p domain.Partition, linkID int64, rawURL string) (*domain.Link, error) {
	if s.fetcher == nil {
		return nil, domain.UpstreamFetch(errors.New("no downloader configured"), "Failed to download icon from URL")
	}
	if _, err := s.links.FindByID(ctx, p, linkID); err != nil {
		return nil, err
	}

	res, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(res.Data) > MaxIconSize {
		return nil, domain.Invalid("File too large. Maximum size is 2MB.")
	}

	detected := mimetype.Detect(res.Data).String()
	detected = normalizeMime(detected)
	if !IsIconMime(detected) {
		return nil, domain.Invalid("Downloaded file is not a valid image")
	}
	return s.Upload(ctx, p, linkID, res.Data, detected)
}

// Delete detaches and removes the link's icon. Links without an icon are
// returned unchanged.
func (s *IconService) Delete(ctx context.Context, p domain.Partition, linkID int64) (*domain.Link, error) {
	link, err := s.links.FindByID(ctx, p, linkID)
	if err != nil {
		return nil, err
	}
	if !link.HasIcon() {
		return link, nil
	}

	filename := *link.IconPath
	link.ClearIcon()
	if err := s.links.Update(ctx, link); err != nil {
		return nil, err
	}
	s.removeBlob(p, filename)
	return link, nil
}

// Read returns the stored icon. The filename is validated before the
// blob store is touched.
func (s *IconService) Read(_ context.Context, p domain.Partition, filename string) ([]byte, error) {
	if err := security.ValidateIconFilename(filename); err != nil {
		return nil, err
	}
	data, err := s.blobs.Get(IconKey(p, filename))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, domain.NotFound("Icon not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read icon: %w", err)
	}
	return data, nil
}

// ReadLinkIcon returns the icon bytes and mime type of link.
func (s *IconService) ReadLinkIcon(ctx context.Context, link *domain.Link) ([]byte, string, error) {
	if !link.HasIcon() {
		return nil, "", domain.NotFound("Icon not found")
	}
	data, err := s.Read(ctx, link.Partition(), *link.IconPath)
	if err != nil {
		return nil, "", err
	}
	mt := "application/octet-stream"
	if link.IconMimeType != nil && IsIconMime(*link.IconMimeType) {
		mt = *link.IconMimeType
	}
	return data, mt, nil
}

// Discard removes the blob of a link that is going away. Failures are
// logged only.
func (s *IconService) Discard(link *domain.Link) {
	if link == nil || !link.HasIcon() {
		return
	}
	s.removeBlob(link.Partition(), *link.IconPath)
}

// PurgePartition removes the whole icon folder of a user partition.
func (s *IconService) PurgePartition(p domain.Partition) error {
	if p.IsGlobal() {
		return errors.New("refusing to purge the global icon folder")
	}
	return s.blobs.DeletePrefix(IconFolder(p))
}

func (s *IconService) removeBlob(p domain.Partition, filename string) {
	if err := security.ValidateIconFilename(filename); err != nil {
		s.log.Warn("skipping icon removal", logger.String("file", filename), logger.Error(err))
		return
	}
	if err := s.blobs.Delete(IconKey(p, filename)); err != nil {
		s.log.Warn("failed to remove icon",
			logger.String("partition", p.String()),
			logger.String("file", filename),
			logger.Error(err))
	}
}
