// Package guid wraps github.com/google/uuid so the rest of the ca
// packages never import uuid directly.
package guid

import "github.com/google/uuid"

// Guid identifies a channel or a subscription handle.
type Guid uuid.UUID

// Empty is the zero-value Guid.
var Empty Guid = Guid(uuid.Nil)

// New creates a new random Guid.
func New() Guid {
	return Guid(uuid.New())
}

// Parse decodes a Guid from its string form.
func Parse(value string) (Guid, error) {
	id, err := uuid.Parse(value)

	if err != nil {
		return Empty, err
	}

	return Guid(id), nil
}

// String returns the canonical string form of the Guid.
func (g Guid) String() string {
	return uuid.UUID(g).String()
}

// IsEmpty reports whether the Guid is the zero value.
func (g Guid) IsEmpty() bool {
	return g == Empty
}
