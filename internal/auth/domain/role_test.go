package domain

import "testing"

func TestRoleHierarchy(t *testing.T) {
	if !(RoleDev.Rank() > RoleAdmin.Rank() && RoleAdmin.Rank() > RoleVendedor.Rank()) {
		t.Fatalf("hierarchy broken: dev=%d admin=%d vendedor=%d", RoleDev.Rank(), RoleAdmin.Rank(), RoleVendedor.Rank())
	}
}

func TestAtLeast(t *testing.T) {
	cases := []struct {
		role  Role
		other Role
		want  bool
	}{
		{RoleDev, RoleVendedor, true},
		{RoleDev, RoleDev, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleDev, false},
		{RoleVendedor, RoleAdmin, false},
		{Role("unknown"), RoleVendedor, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.other); got != tc.want {
			t.Fatalf("%q.AtLeast(%q) = %v, want %v", tc.role, tc.other, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, name := range []string{"dev", "admin", "vendedor"} {
		role, ok := ParseRole(name)
		if !ok || string(role) != name {
			t.Fatalf("ParseRole(%q) = %q, %v", name, role, ok)
		}
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatalf("unknown role must not parse")
	}
	if _, ok := ParseRole("Admin"); ok {
		t.Fatalf("role names are case sensitive")
	}
}

func TestUnknownRoleRanksBelowAll(t *testing.T) {
	if Role("").Rank() != 0 || Role("guest").Rank() != 0 {
		t.Fatalf("unknown roles must rank 0")
	}
}
