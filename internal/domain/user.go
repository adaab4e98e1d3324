package domain

import "time"

// User represents an authenticated user of the system.
type User struct {
	ID                 string
	Username           string
	PasswordHash       string
	RefreshToken       *string
	RefreshTokenExpiry *time.Time
	Roles              []Role
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RoleNames returns the names of the roles currently assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role is a named permission group. Users and roles are many-to-many.
type Role struct {
	ID   int64
	Name string
}

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// TokenPair is what login and refresh hand back to the client. It is never persisted.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
