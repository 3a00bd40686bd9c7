// Package shared provides value objects and domain events used by every
// domain package in the connections backend.
package shared

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// MaxMemberIDLength bounds member identifiers coming from the profile store.
const MaxMemberIDLength = 64

// MemberID is a value object wrapping the opaque identifier minted by the
// profile store. The core never generates member IDs itself.
type MemberID struct {
	value string
}

// NewMemberID creates a MemberID from a string with validation.
func NewMemberID(id string) (MemberID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MemberID{}, ErrEmptyMemberID
	}
	if len(id) > MaxMemberIDLength {
		return MemberID{}, ErrMemberIDTooLong
	}
	return MemberID{value: id}, nil
}

// ParseMemberID is an alias for NewMemberID for consistency with other value objects.
func ParseMemberID(id string) (MemberID, error) {
	return NewMemberID(id)
}

// String returns the string representation of the MemberID.
func (id MemberID) String() string {
	return id.value
}

// Equals checks if two MemberIDs are equal.
func (id MemberID) Equals(other MemberID) bool {
	return id.value == other.value
}

// IsEmpty checks if the MemberID is empty.
func (id MemberID) IsEmpty() bool {
	return id.value == ""
}

// MarshalJSON renders the MemberID as a plain JSON string.
func (id MemberID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON parses and validates a MemberID from a JSON string.
func (id *MemberID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMemberID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ConnectionID is a value object that ensures valid connection record identifiers.
type ConnectionID struct {
	value string
}

// NewConnectionID creates a new random ConnectionID.
func NewConnectionID() ConnectionID {
	return ConnectionID{value: uuid.New().String()}
}

// ParseConnectionID creates a ConnectionID from a string, validating it's a proper UUID.
func ParseConnectionID(id string) (ConnectionID, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ConnectionID{}, ErrInvalidConnectionID
	}
	return ConnectionID{value: id}, nil
}

// String returns the string representation of the ConnectionID.
func (id ConnectionID) String() string {
	return id.value
}

// Equals checks if two ConnectionIDs are equal.
func (id ConnectionID) Equals(other ConnectionID) bool {
	return id.value == other.value
}

// IsEmpty checks if the ConnectionID is empty.
func (id ConnectionID) IsEmpty() bool {
	return id.value == ""
}

// PairKey returns the canonical key for the unordered member pair {a, b}.
// Both directions of a request map to the same key, which is what the storage
// layer's uniqueness condition is declared over.
func PairKey(a, b MemberID) string {
	lo, hi := a.value, b.value
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + "#" + hi
}
