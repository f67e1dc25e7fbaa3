// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role tags a user with the operation set the marketplace grants them.
type Role string

const (
	RoleSeller   Role = "seller"
	RoleBuyer    Role = "buyer"
	RoleRecycler Role = "recycler"
)

// ParseRole accepts the stored form and the display form of a role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "seller", "Seller":
		return RoleSeller, nil
	case "buyer", "Buyer":
		return RoleBuyer, nil
	case "recycler", "Recycler":
		return RoleRecycler, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSeller || r == RoleBuyer || r == RoleRecycler
}

// DisplayName is the capitalised role name.
func (r Role) DisplayName() string {
	switch r {
	case RoleSeller:
		return "Seller"
	case RoleBuyer:
		return "Buyer"
	case RoleRecycler:
		return "Recycler"
	}
	return string(r)
}

// User is a registered marketplace account.
type User struct {
	ID            uuid.UUID // PK
	Username      string    // unique, case-sensitive
	Credential    []byte    // opaque, produced by crypto.Credentials
	Role          Role      // immutable after creation
	CarbonCredits float64
	TotalSales    float64
	CreatedAt     time.Time
}

// Session identifies the actor of an engine call.
type Session struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// SessionOf builds a session for u.
func SessionOf(u *User) Session {
	return Session{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// LeaderboardSize caps the leaderboards.
const LeaderboardSize = 10
