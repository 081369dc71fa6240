// Package roles defines the closed set of store roles and the precedence
// rules for resolving a user's primary role. It sits below every other
// package so role checks never drag in module wiring.
package roles

// Role is a closed enum of store roles. The values are the display labels the
// store operates with; comparing anything else against them is a bug, so all
// role checks go through this type instead of free-text strings.
type Role string

const (
	// RoleSalesConsultant is the capacity-limited customer-facing role.
	RoleSalesConsultant Role = "Satış Danışmanı"
	// RoleStoreManager may hold any number of customers and administers the store.
	RoleStoreManager Role = "Mağaza Müdürü"
	// RoleRunner handles delivery tasks on the floor.
	RoleRunner Role = "Runner"
)

// AllRoles lists every known role, in primary-role precedence order.
var AllRoles = []Role{RoleStoreManager, RoleSalesConsultant, RoleRunner}

// ValidRole reports whether the given label is a known role.
func ValidRole(label string) bool {
	for _, r := range AllRoles {
		if string(r) == label {
			return true
		}
	}
	return false
}

// PrimaryRole resolves a user's primary role by explicit precedence
// (manager > consultant > runner) rather than role insertion order.
// It returns "" when the user holds no known role.
func PrimaryRole(roles []string) Role {
	for _, candidate := range AllRoles {
		for _, held := range roles {
			if held == string(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// CapacityLimited reports whether holders of the role are subject to the
// max-customers-per-consultant parameter. Store managers bypass the limit.
func (r Role) CapacityLimited() bool {
	return r == RoleSalesConsultant
}

// HasRole reports whether the role set contains the given role.
func HasRole(roles []string, role Role) bool {
	for _, held := range roles {
		if held == string(role) {
			return true
		}
	}
	return false
}
