package models

import "time"

const (
	// RoleUser is the default role for registered accounts.
	RoleUser = "USER"
	// RoleAdmin grants global scope over links and analytics.
	RoleAdmin = "ADMIN"
)

// User represents an account that owns links. Accounts themselves are managed
// by an external identity surface; here they only matter as the ownership and
// analytics scoping key.
type User struct {
	ID          string
	Name        string
	Email       string
	Role        string
	LC          string
	Designation string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Principal is the authenticated caller of a management or analytics
// operation, extracted from the bearer token. Name and Email are profile
// claims the identity surface may omit.
type Principal struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
