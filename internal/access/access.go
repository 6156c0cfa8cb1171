// Package access decides whether a portal user may see or act on an
// organization or a project. The predicates are pure and total: a nil
// or unrestricted control always grants access, so callers never need
// to special-case missing data.
package access

// Control is the per-user assignment set embedded in a staff record.
// When RestrictToAssignedOnly is false the Organizations and Projects
// sets are ignored entirely.
type Control struct {
	Organizations          []string `json:"organizations"`
	Projects               []string `json:"projects"`
	RestrictToAssignedOnly bool     `json:"restrict_to_assigned_only"`
}

// ProjectRef carries the two project fields access decisions depend on.
type ProjectRef struct {
	ID             string
	OrganizationID string
}

// Unrestricted reports whether c grants access to everything.
func (c *Control) Unrestricted() bool {
	return c == nil || !c.RestrictToAssignedOnly
}

// CanAccessOrganization reports whether the holder of c may access the
// organization identified by orgID.
func CanAccessOrganization(c *Control, orgID string) bool {
	if c.Unrestricted() {
		return true
	}
	for _, id := range c.Organizations {
		if id == orgID {
			return true
		}
	}
	return false
}

// CanAccessProject reports whether the holder of c may access p. The
// organization gate dominates: a project in an inaccessible organization
// is never accessible. Under a restricted but accessible organization an
// empty project set means "every project in that organization".
func CanAccessProject(c *Control, p ProjectRef) bool {
	if !CanAccessOrganization(c, p.OrganizationID) {
		return false
	}
	if c.Unrestricted() {
		return true
	}
	if len(c.Projects) == 0 {
		return true
	}
	for _, id := range c.Projects {
		if id == p.ID {
			return true
		}
	}
	return false
}

// FilterProjects returns the subset of refs accessible under c, in the
// original order. The input slice is never mutated.
func FilterProjects(c *Control, refs []ProjectRef) []ProjectRef {
	if c.Unrestricted() {
		out := make([]ProjectRef, len(refs))
		copy(out, refs)
		return out
	}
	var out []ProjectRef
	for _, ref := range refs {
		if CanAccessProject(c, ref) {
			out = append(out, ref)
		}
	}
	return out
}
