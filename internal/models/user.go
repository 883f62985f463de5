package models

import "time"

// Membership tiers. Premium accounts see every biodata's contact
// details without going through the access-request workflow.
const (
	TierStandard = "standard"
	TierPremium  = "premium"
)

// Administrative roles.
const (
	RoleNormal = "normal"
	RoleAdmin  = "admin"
)

// User captures application-facing fields for a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Photo        string    `json:"photo,omitempty"`
	Type         string    `json:"type"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsPremium reports whether the account holds the premium tier.
func (u User) IsPremium() bool {
	return u.Type == TierPremium
}

// IsAdmin reports whether the account holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
