package envconfig

import "errors"

var (
	// ErrMissing is returned when a variable is absent and neither a default
	// nor a tolerable zero value exists for the requested type.
	ErrMissing = errors.New("environment variable is not set")

	// ErrInvalidFormat is returned when a raw value cannot be coerced to the
	// requested type.
	ErrInvalidFormat = errors.New("environment variable has invalid format")

	// ErrMismatch is returned when a supplied default's kind does not match
	// the requested type. This is a programmer error, not a deployment error,
	// and is reported even when the variable itself is set.
	ErrMismatch = errors.New("default value does not match requested type")

	// ErrValidation is returned when a custom validator rejects the value.
	ErrValidation = errors.New("environment variable failed validation")

	// ErrParse is returned when environment variables cannot be parsed into
	// a config struct.
	ErrParse = errors.New("failed to parse environment into config struct")

	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("nil pointer passed to config loader")
)
