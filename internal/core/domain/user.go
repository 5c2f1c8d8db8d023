package domain

// Role is the access level a user holds within a single service.
type Role string

const (
	RoleUnspecified Role = "unspecified"
	RoleAdmin       Role = "admin"
	RoleClient      Role = "client"
)

// Valid reports whether r is one of the known role values.
func (r Role) Valid() bool {
	switch r {
	case RoleUnspecified, RoleAdmin, RoleClient:
		return true
	}
	return false
}

// User is an identity record in the shared directory. Usernames and emails
// are unique across all services; roles are not part of the user itself but
// live in per-service grants.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"` // empty when the column is NULL
	PasswordHash string `json:"-"`
}

// RoleGrant binds a user to exactly one role within one service. The storage
// layer enforces at most one grant per (user, service).
type RoleGrant struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Role    Role   `json:"role"`
	Service string `json:"service"`
}

// Membership couples a user with their single grant in one service. It is the
// unit returned by every service-scoped directory lookup.
type Membership struct {
	User  User
	Grant RoleGrant
}
