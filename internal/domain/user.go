// Package domain holds the conferencing entities and the rules that govern
// their state. Persistence and transport live elsewhere.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

const MaxFullNameLen = 255

var (
	ErrFullNameEmpty   = fmt.Errorf("%w: full name empty", ErrInvalidInput)
	ErrFullNameTooLong = fmt.Errorf("%w: full name too long", ErrInvalidInput)
)

// Identity is an authenticated caller as vouched for by the token verifier.
type Identity struct {
	UserID   uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

// NewIdentity avoids ad-hoc struct literals in adapters.
func NewIdentity(id uuid.UUID, fullName string) (Identity, error) {
	if len(fullName) == 0 {
		return Identity{}, ErrFullNameEmpty
	}
	if len(fullName) > MaxFullNameLen {
		return Identity{}, ErrFullNameTooLong
	}
	return Identity{UserID: id, FullName: fullName}, nil
}
