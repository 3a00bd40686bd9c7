// Package shared provides domain error definitions using the unified error system.
package shared

import (
	"kinship-backend/internal/errors"
)

// Domain error definitions using the unified error system. These are the
// sentinels the rest of the codebase matches with errors.Is; the ledger
// service decorates them with member/operation context before returning.
var (
	// Connection errors
	ErrSelfConnection = errors.Validation(errors.CodeSelfConnection.String(), "cannot send a connection request to yourself").
				WithResource("connection").
				Build()
	ErrDuplicateConnection = errors.Conflict(errors.CodeDuplicateConnection.String(), "a connection record already exists for this pair").
				WithResource("connection").
				Build()
	ErrConnectionNotFound = errors.NotFound(errors.CodeConnectionNotFound.String(), "connection not found").
				WithResource("connection").
				Build()
	ErrNotAddressee = errors.Forbidden(errors.CodeNotAddressee.String(), "only the addressee may respond to a connection request").
			WithResource("connection").
			Build()
	ErrAlreadyResolved = errors.Conflict(errors.CodeAlreadyResolved.String(), "connection request is already resolved").
				WithResource("connection").
				Build()
	ErrInvalidConnectionID = errors.Validation(errors.CodeInvalidUUID.String(), "invalid connection ID: must be a valid UUID").
				WithResource("connection").
				Build()
	ErrUnknownDecision = errors.Validation(errors.CodeValidationFailed.String(), "decision must be accepted or declined").
				WithResource("connection").
				Build()
	ErrInvalidRecordState = errors.Internal(errors.CodeInternalError.String(), "connection record violates its invariants").
				WithResource("connection").
				Build()

	// Member errors
	ErrEmptyMemberID = errors.Validation(errors.CodeMemberIDEmpty.String(), "member ID cannot be empty").
				WithResource("member").
				Build()
	ErrMemberIDTooLong = errors.Validation(errors.CodeMemberIDEmpty.String(), "member ID exceeds maximum length").
				WithResource("member").
				Build()
	ErrMemberNotFound = errors.NotFound(errors.CodeMemberNotFound.String(), "member not found").
				WithResource("member").
				Build()

	// Activity errors
	ErrUnknownActivityKind = errors.Validation(errors.CodeUnknownActivityKind.String(), "unknown activity kind").
				WithResource("activity").
				Build()
	ErrUnverifiedActivity = errors.Validation(errors.CodeUnverifiedActivity.String(), "only verified activity events are accepted").
				WithResource("activity").
				Build()

	// Infrastructure errors
	ErrStoreUnavailable = errors.Unavailable(errors.CodeStoreUnavailable.String(), "backing store is unavailable").
				Build()
)

// Error type checking helpers

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.IsValidation(err)
}

// IsConflictError checks if an error is a conflict error.
func IsConflictError(err error) bool {
	return errors.IsConflict(err)
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	return errors.IsNotFound(err)
}

// IsForbiddenError checks if an error is a forbidden error.
func IsForbiddenError(err error) bool {
	return errors.IsForbidden(err)
}

// IsUnavailableError checks if an error is a transient infrastructure error.
func IsUnavailableError(err error) bool {
	return errors.IsUnavailable(err)
}
