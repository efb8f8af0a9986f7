// Package gid issues global identifiers for stored datatypes. Every
// persisted entity carries one, and the web layer references entities
// exclusively through them.
package gid

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Length is the number of hex characters in a GID.
const Length = 32

// New returns a fresh GID: the 16 random bytes of a v4 UUID encoded as
// 32 lowercase hex characters, without separators.
func New() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// IsValid reports whether s has the shape of a GID.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c >= 'a' && c <= 'f' {
			continue
		}
		return false
	}
	return true
}
