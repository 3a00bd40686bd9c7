// Package errors provides standardized error codes for consistent error handling.
package errors

// ErrorCode represents a unique error code for a specific failure scenario.
// Codes are part of the API contract: the UI branches on them to decide
// between a silent refresh (stale cached state) and a visible error.
type ErrorCode string

const (
	// Connection ledger errors
	CodeSelfConnection      ErrorCode = "SELF_CONNECTION"
	CodeDuplicateConnection ErrorCode = "DUPLICATE_CONNECTION"
	CodeConnectionNotFound  ErrorCode = "CONNECTION_NOT_FOUND"
	CodeNotAddressee        ErrorCode = "NOT_ADDRESSEE"
	CodeAlreadyResolved     ErrorCode = "ALREADY_RESOLVED"

	// Member / profile errors
	CodeMemberIDEmpty  ErrorCode = "MEMBER_ID_EMPTY"
	CodeMemberNotFound ErrorCode = "MEMBER_NOT_FOUND"

	// Activity errors
	CodeUnknownActivityKind ErrorCode = "UNKNOWN_ACTIVITY_KIND"
	CodeUnverifiedActivity  ErrorCode = "UNVERIFIED_ACTIVITY"

	// Generic errors
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidUUID      ErrorCode = "INVALID_UUID"
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// String returns the code as a plain string for use in error constructors.
func (c ErrorCode) String() string {
	return string(c)
}
