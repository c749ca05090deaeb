package platform

// Role is a member's standing in a chat.
type Role int

const (
	RoleUnknown Role = iota
	RoleMember
	RoleAdministrator
	RoleCreator
	RoleRestricted
	RoleLeft
	RoleBanned
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdministrator:
		return "administrator"
	case RoleCreator:
		return "creator"
	case RoleRestricted:
		return "restricted"
	case RoleLeft:
		return "left"
	case RoleBanned:
		return "banned"
	case RoleUnknown:
		return "unknown"
	}
	return "unknown"
}

// IsAdmin reports whether the role carries chat administration rights.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdministrator, RoleCreator:
		return true
	case RoleMember, RoleRestricted, RoleLeft, RoleBanned, RoleUnknown:
		return false
	}
	return false
}

// RoleFromStatus maps a Bot API member status string to a Role.
func RoleFromStatus(status string) Role {
	switch status {
	case "creator", "owner":
		return RoleCreator
	case "administrator":
		return RoleAdministrator
	case "member":
		return RoleMember
	case "restricted":
		return RoleRestricted
	case "left":
		return RoleLeft
	case "kicked", "banned":
		return RoleBanned
	}
	return RoleUnknown
}
