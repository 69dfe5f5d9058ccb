// Package groups lists the user groups links can be restricted to.
package groups

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/dashlink/internal/security"
)

type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Directory is a fixed set of groups read from configuration.
type Directory struct {
	groups []Group
}

// Parse reads "id:Display Name" entries. A missing display name defaults
// to the id; duplicate ids keep the first entry.
func Parse(entries []string) (*Directory, error) {
	seen := map[string]bool{}
	d := &Directory{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		id, name, _ := strings.Cut(e, ":")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if err := security.ValidateGroups([]string{id}); err != nil {
			return nil, fmt.Errorf("group %q: %w", e, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if name == "" {
			name = id
		}
		d.groups = append(d.groups, Group{ID: id, DisplayName: name})
	}
	sort.Slice(d.groups, func(i, j int) bool { return d.groups[i].ID < d.groups[j].ID })
	return d, nil
}

// List returns the groups ordered by id.
func (d *Directory) List() []Group {
	out := make([]Group, len(d.groups))
	copy(out, d.groups)
	return out
}

func (d *Directory) Has(id string) bool {
	for _, g := range d.groups {
		if g.ID == id {
			return true
		}
	}
	return false
}
