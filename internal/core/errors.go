package core

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindValidation marks a missing or invalid required field, or a missing upload.
	KindValidation ErrorKind = iota + 1
	// KindNotFound marks a lookup by id that matched no row.
	KindNotFound
	// KindPersistence marks a failed store operation.
	KindPersistence
	// KindUpload marks an upload that is not an image.
	KindUpload
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindUpload:
		return "upload"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is returned by every CoreService operation that fails.
// Message is safe to show to API callers, Err is the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Kind, true
	}
	return 0, false
}

func IsValidation(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindValidation
}

func IsNotFound(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNotFound
}

func IsPersistence(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindPersistence
}

func IsUpload(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindUpload
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func newPersistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

func newUploadError(message string, err error) *Error {
	return &Error{Kind: KindUpload, Message: message, Err: err}
}
