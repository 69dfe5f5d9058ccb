package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Link targets accepted by the widget.
const (
	TargetBlank = "_blank"
	TargetSelf  = "_self"
)

// Field limits, in runes after sanitization.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
	MaxURLLength         = 2048
)

// Link is a dashboard bookmark. UserID is nil for global links.
type Link struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	URL          string    `gorm:"column:url;size:2048;not null" json:"url"`
	Description  *string   `gorm:"type:text" json:"description"`
	IconPath     *string   `gorm:"size:512" json:"iconPath"`
	IconMimeType *string   `gorm:"size:64" json:"iconMimeType"`
	Target       string    `gorm:"size:10;not null" json:"target"`
	Groups       Groups    `gorm:"column:groups_json;type:text" json:"groups"`
	Position     int       `gorm:"not null;index:idx_position;index:idx_user_position,priority:2" json:"position"`
	Enabled      bool      `gorm:"not null;index:idx_enabled" json:"enabled"`
	UserID       *string   `gorm:"size:64;index:idx_user_id;index:idx_user_position,priority:1" json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Link) TableName() string { return "dashlink_links" }

// Partition returns the partition the link belongs to.
func (l *Link) Partition() Partition {
	if l.UserID == nil {
		return Global()
	}
	return OwnedBy(*l.UserID)
}

// HasIcon reports whether a blob is attached to the link.
func (l *Link) HasIcon() bool {
	return l.IconPath != nil && *l.IconPath != ""
}

// ClearIcon detaches the icon fields.
func (l *Link) ClearIcon() {
	l.IconPath = nil
	l.IconMimeType = nil
}

// Groups is the set of group ids a global link is restricted to. It is
// persisted as a JSON array.
type Groups []string

func (g Groups) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(g))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *Groups) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*g = Groups{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("groups: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*g = Groups{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*g = out
	return nil
}

func (g Groups) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(g))
}

// Intersects reports whether any group of g appears in other.
func (g Groups) Intersects(other []string) bool {
	for _, id := range g {
		if slices.Contains(other, id) {
			return true
		}
	}
	return false
}
