package model

import (
	"fmt"
	"strings"
)

// Role identifies the kind of user operating the tracker.
type Role int

const (
	RoleUnknown Role = iota
	RoleScientist
	RoleSpaceAgencyRep
	RolePolicyMaker
	RoleAdministrator
)

// String returns the display name persisted in the users file.
func (r Role) String() string {
	switch r {
	case RoleScientist:
		return "Scientist"
	case RoleSpaceAgencyRep:
		return "Space Agency Representative"
	case RolePolicyMaker:
		return "Policy Maker"
	case RoleAdministrator:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// ParseRole accepts the display name or its space-free form, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scientist":
		return RoleScientist, nil
	case "space agency representative", "spaceagencyrepresentative":
		return RoleSpaceAgencyRep, nil
	case "policy maker", "policymaker":
		return RolePolicyMaker, nil
	case "administrator":
		return RoleAdministrator, nil
	default:
		return RoleUnknown, fmt.Errorf("invalid user type %q", s)
	}
}

// User is an account known to the user directory.
type User struct {
	Name     string
	Role     Role
	Password string
}

// Describe renders the greeting line shown for a user, e.g.
// "Scientist: Dr. Jane Doe".
func Describe(u User) string {
	switch u.Role {
	case RoleScientist, RoleSpaceAgencyRep, RolePolicyMaker, RoleAdministrator:
		return u.Role.String() + ": " + u.Name
	default:
		return u.Name
	}
}
