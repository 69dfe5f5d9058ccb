package security

import (
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

// IconPrefix is required on every stored icon filename.
const IconPrefix = "icon_"

var (
	filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
	groupPattern    = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

// ValidateTarget accepts _blank and _self.
func ValidateTarget(target string) error {
	if target != domain.TargetBlank && target != domain.TargetSelf {
		return domain.Invalid("Invalid target. Allowed values: _blank, _self")
	}
	return nil
}

// ValidateGroups requires every id to be a plain identifier.
func ValidateGroups(groups []string) error {
	for _, g := range groups {
		if !groupPattern.MatchString(g) {
			return domain.Invalid("Invalid group identifier: %q", g)
		}
	}
	return nil
}

// ValidateFilename guards storage keys against traversal.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return domain.Invalid("Filename cannot be empty")
	case strings.ContainsRune(name, 0):
		return domain.Invalid("Filename contains null bytes")
	case strings.ContainsAny(name, `/\`):
		return domain.Invalid("Filename cannot contain path separators")
	case strings.Contains(name, ".."):
		return domain.Invalid("Filename cannot contain '..'")
	case !filenamePattern.MatchString(name):
		return domain.Invalid("Filename contains invalid characters")
	}
	return nil
}

// ValidateIconFilename is ValidateFilename plus the icon_ prefix.
func ValidateIconFilename(name string) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}
	if !strings.HasPrefix(name, IconPrefix) {
		return domain.Invalid("Invalid icon filename")
	}
	return nil
}
