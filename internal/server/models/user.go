// Package models holds the server-side data structures persisted by the
// repositories or kept in the ephemeral store during registration.
package models

import "time"

// UserType is the role a marketplace account acts under.
type UserType string

const (
	UserTypeAdmin  UserType = "admin"
	UserTypeOwner  UserType = "owner"
	UserTypeRenter UserType = "renter"
)

type User struct {
	ID         int64
	Email      string
	Password   string // bcrypt hash, never the plaintext
	FirstName  string
	LastName   string
	Phone      string
	Bio        string
	Avatar     string
	UserType   UserType
	IsVerified bool
	CreatedAt  time.Time
}
