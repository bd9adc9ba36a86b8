// Package entities contains the domain entities of the wallet service.
package entities

import (
	"strings"
	"time"

	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/google/uuid"
)

// User represents an account holder. One distinguished user is the Treasury,
// identified by a well-known email; its wallets are the universal
// counterparty for every transfer.
//
// Users are created by bootstrap/seed and never deleted.
type User struct {
	id        uuid.UUID
	email     string
	name      string
	createdAt time.Time
}

// NewUser creates a new user. Factory function with validation.
func NewUser(email, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.ValidationError{Field: "email", Message: "valid email is required"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.ValidationError{Field: "name", Message: "name is required"}
	}

	return &User{
		id:        uuid.New(),
		email:     email,
		name:      name,
		createdAt: time.Now(),
	}, nil
}

// ReconstructUser reconstructs a User from stored data.
func ReconstructUser(id uuid.UUID, email, name string, createdAt time.Time) *User {
	return &User{id: id, email: email, name: name, createdAt: createdAt}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) Name() string         { return u.name }
func (u *User) CreatedAt() time.Time { return u.createdAt }

// IsTreasury reports whether this user is the treasury account for the
// given well-known email.
func (u *User) IsTreasury(treasuryEmail string) bool {
	return strings.EqualFold(u.email, treasuryEmail)
}
