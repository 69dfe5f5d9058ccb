package domain

// VisibleTo keeps the enabled links a member of userGroups may see: links
// without groups are public, others need at least one shared group.
// Order is preserved.
func VisibleTo(links []*Link, userGroups []string) []*Link {
	out := make([]*Link, 0, len(links))
	for _, l := range links {
		if !l.Enabled {
			continue
		}
		if len(l.Groups) == 0 || l.Groups.Intersects(userGroups) {
			out = append(out, l)
		}
	}
	return out
}
