package sync

import "collabportal.org/internal/portal"

// Concrete collections for the three admin-managed entity types. Each
// instance owns its snapshot; views share one instance per entity type.

type Organizations = Collection[portal.Organization, portal.OrganizationUpdate]

type Projects = Collection[portal.Project, portal.ProjectUpdate]

type StaffMembers = Collection[portal.StaffMember, portal.StaffMemberUpdate]

// NewOrganizations binds a collection to the organization store facet.
func NewOrganizations(store portal.OrganizationStore) *Organizations {
	return NewCollection(Ops[portal.Organization, portal.OrganizationUpdate]{
		List:   store.List,
		Create: store.Create,
		Update: store.Update,
		Delete: store.Delete,
	})
}

// NewProjects binds a collection to the project store facet.
func NewProjects(store portal.ProjectStore) *Projects {
	return NewCollection(Ops[portal.Project, portal.ProjectUpdate]{
		List:   store.List,
		Create: store.Create,
		Update: store.Update,
		Delete: store.Delete,
	})
}

// NewStaffMembers binds a collection to the staff member store facet.
func NewStaffMembers(store portal.StaffMemberStore) *StaffMembers {
	return NewCollection(Ops[portal.StaffMember, portal.StaffMemberUpdate]{
		List:   store.List,
		Create: store.Create,
		Update: store.Update,
		Delete: store.Delete,
	})
}
