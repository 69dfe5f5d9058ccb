package domain

// Partition is the set of links sharing one owner value: the global
// (admin) list, or the private list of a single user. Positions and
// reorders are scoped to a partition.
type Partition struct {
	userID string
}

// Global is the admin-managed partition (owner column NULL).
func Global() Partition { return Partition{} }

// OwnedBy is the private partition of userID. An empty id yields Global.
func OwnedBy(userID string) Partition { return Partition{userID: userID} }

func (p Partition) IsGlobal() bool { return p.userID == "" }

func (p Partition) UserID() string { return p.userID }

// Owner returns the value stored in the owner column.
func (p Partition) Owner() *string {
	if p.IsGlobal() {
		return nil
	}
	id := p.userID
	return &id
}

func (p Partition) String() string {
	if p.IsGlobal() {
		return "global"
	}
	return "user:" + p.userID
}
