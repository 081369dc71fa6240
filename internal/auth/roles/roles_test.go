package roles

import "testing"

func TestPrimaryRolePrecedence(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  Role
	}{
		{"manager wins regardless of order", []string{"Runner", "Satış Danışmanı", "Mağaza Müdürü"}, RoleStoreManager},
		{"consultant before runner", []string{"Runner", "Satış Danışmanı"}, RoleSalesConsultant},
		{"single role", []string{"Runner"}, RoleRunner},
		{"unknown labels ignored", []string{"Kasiyer", "Runner"}, RoleRunner},
		{"no known role", []string{"Kasiyer"}, Role("")},
		{"empty", nil, Role("")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PrimaryRole(tc.roles); got != tc.want {
				t.Fatalf("PrimaryRole(%v) = %q, want %q", tc.roles, got, tc.want)
			}
		})
	}
}

func TestCapacityLimited(t *testing.T) {
	if !RoleSalesConsultant.CapacityLimited() {
		t.Fatal("sales consultant must be capacity limited")
	}
	if RoleStoreManager.CapacityLimited() {
		t.Fatal("store manager must bypass the capacity limit")
	}
	if RoleRunner.CapacityLimited() {
		t.Fatal("runner holds no customers, must not be capacity limited")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range AllRoles {
		if !ValidRole(string(r)) {
			t.Fatalf("expected %q to be valid", r)
		}
	}
	if ValidRole("Kasiyer") {
		t.Fatal("unknown label must not validate")
	}
}
