package entity

import (
	"time"
)

// User is the aggregate root for the account domain
// Password holds a bcrypt hash and is empty for accounts created through
// Google sign-in.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	AvatarURL string
	GoogleID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the account can authenticate with credentials.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
