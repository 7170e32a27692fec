package contract

import (
	"errors"
	"fmt"
)

// Error kinds. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrConfiguration is a malformed questionnaire graph or invalid setup. It is fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation is bad user input such as an empty field or forbidden characters.
	ErrValidation = errors.New("validation error")

	// ErrConflict is a name that is already taken.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is a lookup that matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is a remote service that could not be reached. It differs from an empty result.
	ErrUnavailable = errors.New("service unavailable")
)

// ConfigErrorf wraps ErrConfiguration with a formatted message.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ValidationErrorf wraps ErrValidation with a formatted message.
func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Unavailable wraps a transport failure so callers can tell it from an empty result.
func Unavailable(service string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, service, err)
}

// ErrorKind names the kind of a wrapped error for display.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
