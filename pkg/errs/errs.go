// Package errs holds the failure taxonomy shared by every decoder in the module.
//
// Decoders never recover on their own: they wrap one of the sentinels below and
// return it to the orchestrating load call, which picks the user-visible fallback.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an expected file, sprite or rule set that is absent.
	ErrNotFound = errors.New("not found")

	// ErrMalformed marks bytes that are present but break a structural expectation
	// (bad magic, truncated stream, invalid UTF-8, size mismatch).
	ErrMalformed = errors.New("malformed data")

	// ErrUnsupported marks a recognised format variant that is not implemented.
	ErrUnsupported = errors.New("unsupported feature")
)

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Malformed wraps ErrMalformed with a formatted message.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Unsupported wraps ErrUnsupported with a formatted message.
func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

// Recoverable reports whether err only signals a missing asset, for which
// callers substitute a fallback instead of aborting.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotFound)
}
