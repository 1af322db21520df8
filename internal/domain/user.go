package domain

import (
	"strings"
	"time"
)

// Role enumerates the marketplace roles a user can hold.
type Role string

const (
	RoleDonor     Role = "DONOR"
	RoleRecipient Role = "RECIPIENT"
)

// DefaultRoles is assigned when registration does not name any role.
var DefaultRoles = []Role{RoleDonor, RoleRecipient}

// ParseRole normalizes a role name.
func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(v))) {
	case RoleDonor:
		return RoleDonor, true
	case RoleRecipient:
		return RoleRecipient, true
	}
	return "", false
}

// User represents a registered account within the marketplace.
type User struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	Roles          []Role
	ProfilePicture string
	PhoneNumber    string
	City           string
	State          string
	Country        string
	Bio            string
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasRole reports whether the user holds the role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ProfileUpdate carries a partial profile update. Nil fields are left untouched.
type ProfileUpdate struct {
	Username       *string
	PhoneNumber    *string
	City           *string
	State          *string
	Bio            *string
	ProfilePicture *string
	Roles          []Role
}

// Apply copies the non-nil fields onto the user.
func (p ProfileUpdate) Apply(u *User) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*p.PhoneNumber)
	}
	if p.City != nil {
		u.City = strings.TrimSpace(*p.City)
	}
	if p.State != nil {
		u.State = strings.TrimSpace(*p.State)
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if len(p.Roles) > 0 {
		u.Roles = append([]Role(nil), p.Roles...)
	}
}

// Column limits of the users table.
const (
	MaxUsernameLen = 150
	MaxEmailLen    = 254
	MaxPhoneLen    = 15
	MaxCityLen     = 50
	MaxStateLen    = 50
)

// ValidCountry reports whether code is a two-letter ISO country code.
func ValidCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// Validate checks the profile update against the column limits.
func (p ProfileUpdate) Validate() error {
	verr := &ValidationError{}
	if p.Username != nil {
		if strings.TrimSpace(*p.Username) == "" {
			verr.Add("username", "This field may not be blank.")
		}
		verr.MaxLen("username", strings.TrimSpace(*p.Username), MaxUsernameLen)
	}
	if p.PhoneNumber != nil {
		verr.MaxLen("phone_number", strings.TrimSpace(*p.PhoneNumber), MaxPhoneLen)
	}
	if p.City != nil {
		verr.MaxLen("city", *p.City, MaxCityLen)
	}
	if p.State != nil {
		verr.MaxLen("state", *p.State, MaxStateLen)
	}
	return verr.OrNil()
}
