// Package apperr defines the error taxonomy shared by the auth core and the
// transport layer. Every public service operation returns one of these kinds
// (possibly wrapped with operation context) so handlers can map failures to
// protocol statuses without string matching.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict signals a uniqueness violation (email, username, role assignment).
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated signals bad credentials or a bad/expired/revoked token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden signals a suspended/deleted/inactive account.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound signals a missing referenced user, role or permission.
	ErrNotFound = errors.New("not found")
	// ErrInternal signals store unavailability or any unexpected failure.
	ErrInternal = errors.New("internal error")
)

// ValidationError collects every violated input rule, not just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Validation builds a ValidationError from the given rule violations.
func Validation(violations ...string) error {
	return &ValidationError{Violations: violations}
}

// AsValidation unwraps err into a ValidationError if it carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Error wraps a lower-level cause with an operation name while keeping the
// taxonomy kind reachable through errors.Is.
type Error struct {
	Kind error  // one of the sentinel kinds above
	Op   string // e.g. "registration failed"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// E builds a kind-tagged error with operation context.
func E(kind error, op string, cause error) error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Internal wraps an unexpected failure as ErrInternal with operation context.
func Internal(op string, cause error) error {
	return &Error{Kind: ErrInternal, Op: op, Err: cause}
}
