package reconcile

import "fmt"

type ErrorReason string

const (
	REASON_SALT_NOT_CONFIGURED    ErrorReason = "SALT_NOT_CONFIGURED"
	REASON_HASH_MISMATCH          ErrorReason = "HASH_MISMATCH"
	REASON_MISSING_LOOKUP_KEY     ErrorReason = "MISSING_LOOKUP_KEY"
	REASON_REGISTRATION_NOT_FOUND ErrorReason = "REGISTRATION_NOT_FOUND"
	REASON_FAILED_TO_UPDATE       ErrorReason = "FAILED_TO_UPDATE"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newReconcileError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewSaltNotConfiguredError() *Error {
	return newReconcileError(REASON_SALT_NOT_CONFIGURED, "Payment gateway salt is not configured", nil)
}

func NewHashMismatchError(txnID string) *Error {
	return newReconcileError(REASON_HASH_MISMATCH, fmt.Sprintf("Hash verification failed for txnid %q", txnID), nil)
}

func NewMissingLookupKeyError() *Error {
	return newReconcileError(REASON_MISSING_LOOKUP_KEY, "Callback has neither udf1 nor txnid", nil)
}

func NewRegistrationNotFoundError(lookupKey string) *Error {
	return newReconcileError(REASON_REGISTRATION_NOT_FOUND, fmt.Sprintf("No registration found for lookup key %q", lookupKey), nil)
}

func NewFailedToUpdateError(lookup LookupField, cause error) *Error {
	return newReconcileError(REASON_FAILED_TO_UPDATE, fmt.Sprintf("Failed to update registration by %s", lookup), cause)
}
