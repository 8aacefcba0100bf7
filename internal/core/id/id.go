// Package id generates row identifiers.
package id

import (
	"github.com/google/uuid"
)

// ID identifies every stored row. Values are UUIDv7 so they sort by creation time.
type ID = uuid.UUID

// New returns a fresh UUIDv7, falling back to v4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts s to an ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse panics on malformed input. Tests and constants only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether v is the zero ID.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Less orders IDs bytewise. Row locks are taken in this order.
func Less(a, b ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
