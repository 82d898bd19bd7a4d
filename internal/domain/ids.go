package domain

import "github.com/google/uuid"

// ID identifies owners, devices, measurements and alerts.
type ID = uuid.UUID

// NilID is the zero identifier.
var NilID = uuid.Nil

// NewID returns a random identifier.
func NewID() ID { return uuid.New() }

// ParseID parses the canonical textual form of an ID.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilID, ErrValidation
	}
	return id, nil
}
