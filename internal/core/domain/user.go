package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
)

// User models an authenticated actor in the system. Doctors submit scans,
// admins additionally manage users, the company profile, and audit history.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	Disabled     bool      `json:"disabled"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the resolved view of a token subject, attached to every
// authenticated request.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"username"`
	Role        string `json:"role"`
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDoctor
}
