package domain

import "time"

// UserRole enumerates what a registered user may do.
type UserRole string

const (
	UserRoleDonor     UserRole = "donor"
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleAdmin     UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleDonor, UserRoleVolunteer, UserRoleAdmin:
		return true
	}
	return false
}

// UserStatus represents lifecycle states for a user.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "block"
)

// Toggled returns the opposite status. Anything that is not active becomes active.
func (s UserStatus) Toggled() UserStatus {
	if s == UserStatusActive {
		return UserStatusBlocked
	}
	return UserStatusActive
}

// User is a registered donor, volunteer or administrator. Email is the identity key.
type User struct {
	ID           string     `json:"_id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Email        string     `json:"email"`
	Image        string     `json:"image,omitempty"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	BloodGroup   string     `json:"bloodGroup,omitempty"`
	District     string     `json:"district,omitempty"`
	Upazila      string     `json:"upazila,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoggedIn time.Time  `json:"last_loggedIn"`
	LastUpdateAt *time.Time `json:"last_update_At,omitempty"`
}
