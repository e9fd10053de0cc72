package auth

// Role orders what a caller may do: viewers read results, operators
// also upload data and launch runs, admins do everything.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// NormalizeRole maps a claim value onto the role ladder. Unknown values
// return false rather than defaulting to viewer.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast reports whether role sits at or above required on the
// ladder.
func RoleAtLeast(role, required Role) bool {
	return rank(role) >= rank(required)
}

func rank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
