package service

import (
	"context"
	"strconv"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/security"
)

const (
	KeyHoverEffect      = "hover_effect"
	KeyWidgetTitle      = "widget_title"
	KeyUserLinksEnabled = "user_links_enabled"
	KeyUserLinkLimit    = "user_link_limit"

	DefaultWidgetTitle   = "DashLink"
	MaxWidgetTitleLength = 100
	DefaultUserLinkLimit = 10
	MinUserLinkLimit     = 1
	MaxUserLinkLimit     = 50
)

// SettingsService exposes typed accessors over the settings table. Reads
// never fail on bad stored values: they fall back to the default.
type SettingsService struct {
	store SettingStore
	log   logger.Logger
}

func NewSettingsService(store SettingStore, log logger.Logger) *SettingsService {
	return &SettingsService{store: store, log: log}
}

func (s *SettingsService) get(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func (s *SettingsService) HoverEffect(ctx context.Context) (string, error) {
	v, err := s.get(ctx, KeyHoverEffect, domain.DefaultHoverEffect)
	if err != nil {
		return "", err
	}
	if !domain.IsHoverEffect(v) {
		return domain.DefaultHoverEffect, nil
	}
	return v, nil
}

func (s *SettingsService) SetHoverEffect(ctx context.Context, id string) error {
	if !domain.IsHoverEffect(id) {
		return domain.Invalid("Invalid effect: %s", id)
	}
	return s.store.Set(ctx, KeyHoverEffect, id)
}

func (s *SettingsService) WidgetTitle(ctx context.Context) (string, error) {
	v, err := s.get(ctx, KeyWidgetTitle, DefaultWidgetTitle)
	if err != nil {
		return "", err
	}
	if v == "" {
		return DefaultWidgetTitle, nil
	}
	return v, nil
}

// SetWidgetTitle stores the sanitized title; a title that sanitizes to
// nothing restores the default.
func (s *SettingsService) SetWidgetTitle(ctx context.Context, title string) error {
	title = security.SanitizeText(title, MaxWidgetTitleLength)
	if title == "" {
		title = DefaultWidgetTitle
	}
	return s.store.Set(ctx, KeyWidgetTitle, title)
}

func (s *SettingsService) UserLinksEnabled(ctx context.Context) (bool, error) {
	v, err := s.get(ctx, KeyUserLinksEnabled, "0")
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

func (s *SettingsService) SetUserLinksEnabled(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return s.store.Set(ctx, KeyUserLinksEnabled, v)
}

// UserLinkLimit is clamped into [MinUserLinkLimit, MaxUserLinkLimit].
func (s *SettingsService) UserLinkLimit(ctx context.Context) (int, error) {
	v, err := s.get(ctx, KeyUserLinkLimit, strconv.Itoa(DefaultUserLinkLimit))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.log.Warn("ignoring invalid stored user link limit", logger.String("value", v))
		return DefaultUserLinkLimit, nil
	}
	return min(max(n, MinUserLinkLimit), MaxUserLinkLimit), nil
}

func (s *SettingsService) SetUserLinkLimit(ctx context.Context, limit int) error {
	if limit < MinUserLinkLimit || limit > MaxUserLinkLimit {
		return domain.Invalid("User link limit must be between %d and %d", MinUserLinkLimit, MaxUserLinkLimit)
	}
	return s.store.Set(ctx, KeyUserLinkLimit, strconv.Itoa(limit))
}

// All returns the full settings payload.
func (s *SettingsService) All(ctx context.Context) (*domain.Settings, error) {
	effect, err := s.HoverEffect(ctx)
	if err != nil {
		return nil, err
	}
	title, err := s.WidgetTitle(ctx)
	if err != nil {
		return nil, err
	}
	enabled, err := s.UserLinksEnabled(ctx)
	if err != nil {
		return nil, err
	}
	limit, err := s.UserLinkLimit(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Settings{
		HoverEffect:      effect,
		AvailableEffects: domain.HoverEffects(),
		WidgetTitle:      title,
		UserLinksEnabled: enabled,
		UserLinkLimit:    limit,
	}, nil
}

// Apply validates every supplied field before writing any of them.
func (s *SettingsService) Apply(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	if patch.HoverEffect != nil && !domain.IsHoverEffect(*patch.HoverEffect) {
		return nil, domain.Invalid("Invalid effect: %s", *patch.HoverEffect)
	}
	if patch.UserLinkLimit != nil {
		if err := security.ValidateInteger(*patch.UserLinkLimit, MinUserLinkLimit, MaxUserLinkLimit); err != nil {
			return nil, domain.Invalid("User link limit must be between %d and %d", MinUserLinkLimit, MaxUserLinkLimit)
		}
	}

	if patch.HoverEffect != nil {
		if err := s.SetHoverEffect(ctx, *patch.HoverEffect); err != nil {
			return nil, err
		}
	}
	if patch.WidgetTitle != nil {
		if err := s.SetWidgetTitle(ctx, *patch.WidgetTitle); err != nil {
			return nil, err
		}
	}
	if patch.UserLinksEnabled != nil {
		if err := s.SetUserLinksEnabled(ctx, *patch.UserLinksEnabled); err != nil {
			return nil, err
		}
	}
	if patch.UserLinkLimit != nil {
		if err := s.SetUserLinkLimit(ctx, *patch.UserLinkLimit); err != nil {
			return nil, err
		}
	}
	return s.All(ctx)
}
