package store

import (
	"errors"
	"fmt"
)

// IntegrityErrorKind discriminates the referential-integrity failures the
// write path can reject a change with.
type IntegrityErrorKind string

const (
	// ScopeMismatch: a binding references a set its scope may not reach,
	// e.g. a namespaced binding referencing a set in another namespace.
	ScopeMismatch IntegrityErrorKind = "ScopeMismatch"

	// DanglingReference: a binding references a set that does not exist.
	// Rejected at creation; a reference is permitted to become dangling later.
	DanglingReference IntegrityErrorKind = "DanglingReference"

	// DuplicateName: a create collides with an existing name in the same scope.
	DuplicateName IntegrityErrorKind = "DuplicateName"
)

// IntegrityError is returned by the administrative write path only. It is
// always recoverable by correcting the input; the engine state it was
// raised against is left untouched.
type IntegrityError struct {
	Kind    IntegrityErrorKind
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func integrityErrorf(kind IntegrityErrorKind, format string, args ...any) *IntegrityError {
	return &IntegrityError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsIntegrityError reports whether err is an IntegrityError of the given kind.
func IsIntegrityError(err error, kind IntegrityErrorKind) bool {
	var ie *IntegrityError
	return errors.As(err, &ie) && ie.Kind == kind
}
