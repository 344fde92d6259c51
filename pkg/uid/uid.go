// Package uid generates the random identifiers used for request ids,
// token ids and hosted image ids.
package uid

import "github.com/google/uuid"

// New returns a random (v4) UUID string.
func New() string {
	return uuid.NewString()
}

// Valid reports whether id is a well-formed UUID, as issued by New.
func Valid(id string) bool {
	return uuid.Validate(id) == nil
}
