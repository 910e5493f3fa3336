package model

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var sessionEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewSessionID returns a short, lowercase identifier for one process run.
// 16 UUID bytes encode to 26 base32 characters.
func NewSessionID() string {
	id := uuid.New()
	return strings.ToLower(sessionEncoding.EncodeToString(id[:]))
}

// ValidSessionID reports whether id looks like a value from NewSessionID.
func ValidSessionID(id string) bool {
	if len(id) != 26 {
		return false
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')) {
			return false
		}
	}
	return true
}
