package errs

import "errors"

// Sentinel errors for cross-layer signaling. Services return these (usually
// wrapped) and the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrNotFound indicates a missing account or transaction reference.
	ErrNotFound = errors.New("not_found")
	// ErrPrecondition indicates a missing or ambiguous root INIT account.
	ErrPrecondition = errors.New("precondition_failed")
	// ErrExternalService indicates the price oracle was unreachable or
	// returned a malformed response.
	ErrExternalService = errors.New("external_service")
	// ErrValidation indicates malformed input (bad date, negative amount,
	// credit == debit account).
	ErrValidation = errors.New("validation")
	// ErrConflict indicates a write refused to preserve referential
	// integrity (e.g. deleting an account that transactions still reference).
	ErrConflict = errors.New("conflict")
)
