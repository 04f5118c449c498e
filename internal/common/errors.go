package common

import "errors"

// Workflow error taxonomy. Services wrap collaborator failures with one of
// these sentinels via fmt.Errorf("%w: ...") so callers can match with
// errors.Is and handlers can pick the right status code and message.
var (
	// ErrValidation means bad input; no side effect has happened yet.
	ErrValidation = errors.New("validation failed")

	// ErrAuth covers identity-provider rejections (bad credentials,
	// duplicate email, unknown reset token).
	ErrAuth = errors.New("authentication failed")

	// Object store failures.
	ErrStorageWrite = errors.New("storage write failed")
	ErrStorageRead  = errors.New("storage read failed")
	ErrDeletion     = errors.New("deletion failed")

	// Record repository failures.
	ErrMetadataWrite = errors.New("metadata write failed")
	ErrMetadataRead  = errors.New("metadata read failed")
)
