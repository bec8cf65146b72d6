package domain

import "time"

// Role enumerates caller roles as resolved by the external identity provider.
type Role string

const (
	RoleUser  Role = "USER"
	RoleIT    Role = "IT"
	RoleAdmin Role = "ADMIN"
)

// KnownRole reports whether r is one of the enumerated roles.
func KnownRole(r Role) bool {
	return r == RoleUser || r == RoleIT || r == RoleAdmin
}

// User is the directory record for reporters and technicians.
type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
