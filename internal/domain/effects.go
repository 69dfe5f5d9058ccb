package domain

// HoverEffect describes one widget hover animation.
type HoverEffect struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const DefaultHoverEffect = "blur"

var hoverEffects = []HoverEffect{
	{ID: "blur", Name: "Blur Overlay", Description: "Description appears over a blurred logo background"},
	{ID: "flip", Name: "3D Card Flip", Description: "Card flips to reveal description on the back"},
	{ID: "slide", Name: "Slide Panel", Description: "Description panel slides up from the bottom"},
}

// HoverEffects returns the registry in display order.
func HoverEffects() []HoverEffect {
	out := make([]HoverEffect, len(hoverEffects))
	copy(out, hoverEffects)
	return out
}

func IsHoverEffect(id string) bool {
	for _, e := range hoverEffects {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Settings is the admin-tunable widget configuration.
type Settings struct {
	HoverEffect      string        `json:"hoverEffect"`
	AvailableEffects []HoverEffect `json:"availableEffects"`
	WidgetTitle      string        `json:"widgetTitle"`
	UserLinksEnabled bool          `json:"userLinksEnabled"`
	UserLinkLimit    int           `json:"userLinkLimit"`
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	HoverEffect      *string `json:"hoverEffect" validate:"omitempty,max=32"`
	WidgetTitle      *string `json:"widgetTitle" validate:"omitempty,max=1024"`
	UserLinksEnabled *bool   `json:"userLinksEnabled"`
	UserLinkLimit    *int    `json:"userLinkLimit"`
}
