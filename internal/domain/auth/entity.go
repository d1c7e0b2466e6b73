package auth

type Role string

const (
	RoleAdmin    Role = "admin"    // Uploads reports and corrects records
	RoleHR       Role = "hr"       // Same privileges as admin
	RoleEmployee Role = "employee" // Reads own attendance only
)

// IsAdmin reports whether the role may use the admin endpoints.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleHR
}

// Identity is what the access token says about the caller.
type Identity struct {
	UserID     string
	Email      string
	EmployeeID string
	Role       Role
}
