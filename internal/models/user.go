package models

import "time"

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID                  int64
	FullName            string
	Email               string
	Phone               string
	PasswordHash        string
	Role                string // RoleUser or RoleAdmin
	RememberToken       *string
	RememberTokenExpiry *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
