package enums

import "testing"

func TestParseSystemRole(t *testing.T) {
	for _, raw := range []string{"member", "staff", "admin"} {
		role, err := ParseSystemRole(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !role.IsValid() || role.String() != raw {
			t.Fatalf("unexpected role %q", role)
		}
	}
	if _, err := ParseSystemRole("owner"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRoleForFlags(t *testing.T) {
	cases := []struct {
		admin, staff bool
		want         SystemRole
	}{
		{false, false, SystemRoleMember},
		{false, true, SystemRoleStaff},
		{true, true, SystemRoleAdmin},
		{true, false, SystemRoleAdmin},
	}
	for _, tc := range cases {
		if got := RoleForFlags(tc.admin, tc.staff); got != tc.want {
			t.Fatalf("RoleForFlags(%v,%v)=%q want %q", tc.admin, tc.staff, got, tc.want)
		}
	}
}
