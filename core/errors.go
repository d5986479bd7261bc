package core

import "github.com/pkg/errors"

// FieldError ties a failed check to the input field that caused it. Field
// holds the field's JSON name so the API can echo it back verbatim.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned by the account and review services for input
// failures the validator tags cannot express, such as a duplicate email or
// a topic the student already reviewed. The HTTP error handler renders it
// as a 400 with the field errors keyed by name.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals that the web server can no longer serve requests safely
// and should be stopped gracefully.
type shutdown struct {
	msg string
}

func NewShutdownError(msg string) error {
	return &shutdown{msg: msg}
}

func (s *shutdown) Error() string {
	return s.msg
}

// IsShutdown reports whether err, at its cause, asks for a graceful stop.
// The HTTP error handler checks it before signaling the server.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
