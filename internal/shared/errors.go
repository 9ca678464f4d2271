package shared

import "errors"

var (
	// ErrNotFound indicates a missing entity id.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing caller input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition indicates a state machine precondition violation.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrOutOfFolios indicates the folio pool is exhausted and operators
	// need to provision a new block.
	ErrOutOfFolios = errors.New("no available folios")
	// ErrInvalidRange indicates a non-positive provisioning count.
	ErrInvalidRange = errors.New("invalid folio range")
	// ErrInvalidPaymentTerms indicates payment terms without a positive
	// days-to-due value.
	ErrInvalidPaymentTerms = errors.New("invalid payment terms")
	// ErrConflict indicates a transient concurrent-write conflict that is
	// safe to retry.
	ErrConflict = errors.New("storage conflict")
	// ErrUnauthorized indicates a missing or unknown API key.
	ErrUnauthorized = errors.New("unauthorized")
)
