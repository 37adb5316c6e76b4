// Package envconfig provides typed access to process environment variables.
//
// It offers two complementary APIs. Get reads a single named variable with
// per-call type coercion, defaulting, and validation; nothing is cached, so
// it observes runtime changes to the environment. Load parses a whole
// env-tagged struct once per process and caches the result, which suits
// configuration that is fixed for the process lifetime.
//
// # Typed values
//
// Coerced values are represented by the Value union: string, finite number,
// bool, null, object, or array. Object members preserve the order they had in
// the source text. Value is immutable once produced; Interface converts it to
// plain Go data when a typed view is no longer needed.
//
// # Usage
//
//	uri, err := envconfig.Get("DATASTORE_URI", envconfig.Required())
//	if err != nil {
//		// handle error
//	}
//
//	timeout, err := envconfig.Get("SOCKET_TIMEOUT_MS",
//		envconfig.AsNumber(),
//		envconfig.Default(envconfig.Number(30000)),
//		envconfig.Validate(func(v envconfig.Value) error {
//			if v.Float() <= 0 {
//				return errors.New("timeout must be positive")
//			}
//			return nil
//		}),
//	)
//
// # Error Handling
//
// Failures are reported through sentinel errors usable with errors.Is:
//
//   - ErrMissing: variable absent with no default to fall back on.
//   - ErrInvalidFormat: raw value cannot be coerced to the requested type.
//   - ErrMismatch: a supplied default's kind contradicts the requested
//     type. This is a call-site bug and is reported even when the variable
//     is set to a perfectly valid value.
//   - ErrValidation: a custom validator rejected the value.
//
// Every error message names the offending variable.
//
// # Edge policy
//
// A variable that is absent, not required, and has no default yields
// String("") for string lookups only. For number, bool, and JSON lookups the
// same combination fails with ErrMissing: inventing a zero value of those
// types would silently mask a deployment mistake.
package envconfig
