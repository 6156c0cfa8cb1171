package access

import "testing"

func TestUnrestrictedControlGrantsEverything(t *testing.T) {
	controls := []*Control{
		nil,
		{},
		{RestrictToAssignedOnly: false, Organizations: []string{"org-a"}, Projects: []string{"p-1"}},
	}
	for _, c := range controls {
		if !CanAccessOrganization(c, "org-z") {
			t.Fatalf("control %+v should grant any organization", c)
		}
		if !CanAccessProject(c, ProjectRef{ID: "p-z", OrganizationID: "org-z"}) {
			t.Fatalf("control %+v should grant any project", c)
		}
	}
}

func TestRestrictedOrganizationGate(t *testing.T) {
	c := &Control{
		RestrictToAssignedOnly: true,
		Organizations:          []string{"org-a"},
	}
	if !CanAccessOrganization(c, "org-a") {
		t.Fatal("assigned organization must be accessible")
	}
	if CanAccessOrganization(c, "org-b") {
		t.Fatal("unassigned organization must not be accessible")
	}
}

func TestEmptyProjectSetMeansAllProjectsInOrganization(t *testing.T) {
	c := &Control{
		RestrictToAssignedOnly: true,
		Organizations:          []string{"org-a"},
	}
	for _, id := range []string{"p-1", "p-2", "anything"} {
		if !CanAccessProject(c, ProjectRef{ID: id, OrganizationID: "org-a"}) {
			t.Fatalf("project %s in assigned org should be accessible", id)
		}
	}
	if CanAccessProject(c, ProjectRef{ID: "p-1", OrganizationID: "org-b"}) {
		t.Fatal("organization gate must dominate project access")
	}
}

func TestExplicitProjectSetRestrictsWithinOrganization(t *testing.T) {
	c := &Control{
		RestrictToAssignedOnly: true,
		Organizations:          []string{"org-a"},
		Projects:               []string{"p-1"},
	}
	if !CanAccessProject(c, ProjectRef{ID: "p-1", OrganizationID: "org-a"}) {
		t.Fatal("assigned project must be accessible")
	}
	if CanAccessProject(c, ProjectRef{ID: "p-2", OrganizationID: "org-a"}) {
		t.Fatal("unassigned project must not be accessible even in assigned org")
	}
}

func TestRestrictedWithNoAssignmentsSeesNothing(t *testing.T) {
	c := &Control{RestrictToAssignedOnly: true}
	if CanAccessOrganization(c, "org-a") {
		t.Fatal("no organizations assigned, none should be accessible")
	}
	if CanAccessProject(c, ProjectRef{ID: "p-1", OrganizationID: "org-a"}) {
		t.Fatal("no organizations assigned, no project should be accessible")
	}
}

func TestFilterProjects(t *testing.T) {
	refs := []ProjectRef{
		{ID: "p-1", OrganizationID: "org-a"},
		{ID: "p-2", OrganizationID: "org-a"},
		{ID: "p-3", OrganizationID: "org-b"},
	}
	c := &Control{
		RestrictToAssignedOnly: true,
		Organizations:          []string{"org-a"},
		Projects:               []string{"p-2"},
	}
	got := FilterProjects(c, refs)
	if len(got) != 1 || got[0].ID != "p-2" {
		t.Fatalf("expected only p-2, got %+v", got)
	}

	all := FilterProjects(nil, refs)
	if len(all) != len(refs) {
		t.Fatalf("nil control should keep all refs, got %d", len(all))
	}
}
