package guardkit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for GuardKit operations.
var (
	// ErrUnauthenticated is returned when no usable credential was
	// presented. Missing, invalid and expired credentials all collapse
	// into this single error so the cause is never leaked to callers.
	ErrUnauthenticated = errors.New("guardkit: unauthenticated")

	// ErrForbidden is returned when an authenticated caller fails a
	// rank or permission gate.
	ErrForbidden = errors.New("guardkit: forbidden")

	// ErrNotFound is returned when a role or permission name does not
	// resolve.
	ErrNotFound = errors.New("guardkit: not found")

	// ErrDuplicateRole is returned when creating a role whose
	// normalized name already exists.
	ErrDuplicateRole = errors.New("guardkit: duplicate role")

	// ErrDuplicateKey is returned when creating a permission whose
	// normalized key already exists.
	ErrDuplicateKey = errors.New("guardkit: duplicate permission key")

	// ErrInvalidInput is returned for empty or malformed names, labels
	// and keys.
	ErrInvalidInput = errors.New("guardkit: invalid input")

	// ErrInvalidStatus is returned when a role status is not one of the
	// defined values.
	ErrInvalidStatus = errors.New("guardkit: invalid role status")

	// ErrUnknownPermissions is returned when a submitted permission set
	// references keys missing from the catalog. The wrapping Error
	// carries the complete missing set, never just the first key.
	ErrUnknownPermissions = errors.New("guardkit: unknown permission keys")

	// ErrRoleInUse is returned when deleting a role that principals
	// still hold.
	ErrRoleInUse = errors.New("guardkit: role in use")

	// ErrLastAdmin is returned when an operation would leave the system
	// with zero holders of the top-ranked role.
	ErrLastAdmin = errors.New("guardkit: last admin protected")

	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached or times out. Authorization callers must treat it as a
	// denial, never as an allow.
	ErrStoreUnavailable = errors.New("guardkit: store unavailable")

	// ErrNoDirectory is returned when an operation needs the principal
	// directory and none was configured.
	ErrNoDirectory = errors.New("guardkit: no principal directory configured")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error    // Underlying sentinel error
	Message string   // Additional context
	Role    string   // Role involved (if applicable)
	Keys    []string // Permission keys involved (if applicable)
	ActorID string   // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Keys) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Keys, ", "))
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// NewErrorf creates a new Error with formatted context.
func NewErrorf(err error, format string, args ...any) *Error {
	return &Error{
		Err:     err,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role string) *Error {
	e.Role = role
	return e
}

// WithKeys adds the affected permission keys to the error. For
// ErrUnknownPermissions this is the complete missing set.
func (e *Error) WithKeys(keys ...string) *Error {
	e.Keys = keys
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// MissingKeys extracts the missing permission keys from an
// ErrUnknownPermissions error. Returns nil for any other error.
func MissingKeys(err error) []string {
	var ge *Error
	if errors.As(err, &ge) && errors.Is(ge.Err, ErrUnknownPermissions) {
		return ge.Keys
	}
	return nil
}

// IsUnauthenticated checks if an error means the caller presented no
// usable credential.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsForbidden checks if an error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if an error is a missing role or permission.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a uniqueness or in-use conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRole) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrRoleInUse) ||
		errors.Is(err, ErrLastAdmin)
}

// IsInvalidInput checks if an error is a validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrUnknownPermissions)
}

// IsStoreUnavailable checks if an error is a backing-store failure.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
