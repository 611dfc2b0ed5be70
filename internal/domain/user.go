package domain

import "github.com/google/uuid"

// User is a CRM account. Active users receive imported leads.
type User struct {
	ID       uuid.UUID
	Username string
	FullName string
	Email    string
	Active   bool
}

// DisplayName prefers the full name.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
