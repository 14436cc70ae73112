package domain

import "errors"

// MissingInputError reports a required input that resolved to empty. It
// aborts the run before any external invocation.
type MissingInputError struct {
	Field string
}

func (e MissingInputError) Error() string {
	return "input required and not supplied: " + e.Field
}

// Credential document failures. These are fatal only when the token
// injection path is exercised.
var (
	ErrCredentialFileNotFound      = errors.New("credential file not found")
	ErrMalformedCredentialDocument = errors.New("malformed credential document")
	ErrNoContextsDefined           = errors.New("credential document defines no contexts")
)

// ErrTemplateFileMissing marks a declared value file that does not exist on
// disk. Rendering never creates files.
var ErrTemplateFileMissing = errors.New("value file not found")
