package errors

import (
	"errors"
	"fmt"
)

// Error kinds shared by the gateway, the controllers and the dev server
var (
	// Credentials rejected at login/signup, or the caller is not allowed to act on the resource
	ErrAuth = errors.New("authentication failed")

	// Mutate/delete target missing or not owned by the caller
	ErrNotFound = errors.New("not found")

	// Network or server failure
	ErrTransport = errors.New("transport failure")

	// Malformed input fields
	ErrValidation = errors.New("validation failed")

	// Gating errors
	ErrNotAuthenticated = errors.New("not logged in")
	ErrMissingToken     = errors.New("missing token")

	// Store errors
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Validation returns an ErrValidation carrying a field-level message.
func Validation(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, msg)
}

// Kind returns the first error kind found in err's chain, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrAuth, ErrNotFound, ErrNotAuthenticated, ErrMissingToken, ErrStoreUnavailable, ErrTransport} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// StoreUnavailable marks a credential store failure while keeping the cause in the chain.
func StoreUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
