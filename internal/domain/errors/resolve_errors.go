package errors

import (
	"fmt"
)

// ResolveError represents a failure to resolve a provider resource
type ResolveError struct {
	Type       string
	Message    string
	ObjectUUID string
	Cause      error
}

func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (uuid: %s) - %v",
			e.Type, e.Message, e.ObjectUUID, e.Cause)
	}
	return fmt.Sprintf("%s: %s (uuid: %s)",
		e.Type, e.Message, e.ObjectUUID)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// Resolve error types
const (
	ErrTypeUnresolved        = "RESOURCE_UNRESOLVED"
	ErrTypeMissingIdentifier = "MISSING_IDENTIFIER"
)

// NewUnresolvedError is returned when every resolver strategy has been
// exhausted without producing a usable resource.
func NewUnresolvedError(objectUUID string, cause error) *ResolveError {
	return &ResolveError{
		Type:       ErrTypeUnresolved,
		Message:    "all resolver strategies exhausted",
		ObjectUUID: objectUUID,
		Cause:      cause,
	}
}

// NewMissingIdentifierError is returned when the payload carries neither
// an id nor a uuid to resolve by.
func NewMissingIdentifierError() *ResolveError {
	return &ResolveError{
		Type:    ErrTypeMissingIdentifier,
		Message: "payload carries no resolvable identifier",
	}
}
