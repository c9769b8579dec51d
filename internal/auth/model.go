package auth

import (
	"github.com/google/uuid"
)

// User represents a row in the users table joined with its profile name.
type User struct {
	ID          uuid.UUID
	Username    string
	Email       string
	GoogleID    *string // nil until the first login
	GoogleName  *string // nil until the first login
	ProfileID   uuid.UUID
	ProfileName string
	IsActive    bool
}

// Authorization is the outcome of a successful directory lookup.
type Authorization struct {
	UserID      string
	Profile     string
	Name        string
	GoogleID    string
	GoogleName  string
	Permissions []string
}

// IdentityUpdate carries the Google identity fields to overwrite on a user.
// A nil field is left untouched.
type IdentityUpdate struct {
	GoogleID   *string
	GoogleName *string
}

// Empty reports whether the update changes nothing.
func (u IdentityUpdate) Empty() bool {
	return u.GoogleID == nil && u.GoogleName == nil
}
