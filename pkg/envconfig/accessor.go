package envconfig

import (
	"fmt"
	"os"
)

// Option customizes a single Get lookup.
type Option func(*request)

type request struct {
	required   bool
	hasDefault bool
	def        Value
	want       Kind
	validate   func(Value) error
}

// Required makes the lookup fail with ErrMissing when the variable is absent
// and no default is supplied.
func Required() Option {
	return func(r *request) { r.required = true }
}

// Default supplies a fallback used when the variable is absent. The default's
// kind must match the requested type; a mismatch is reported as ErrMismatch
// regardless of whether the variable is set.
func Default(v Value) Option {
	return func(r *request) {
		r.hasDefault = true
		r.def = v
	}
}

// AsString requests string coercion. This is the default.
func AsString() Option {
	return func(r *request) { r.want = KindString }
}

// AsNumber requests finite-number coercion.
func AsNumber() Option {
	return func(r *request) { r.want = KindNumber }
}

// AsBool requests boolean coercion: true/1/yes/y and false/0/no/n,
// case-insensitive.
func AsBool() Option {
	return func(r *request) { r.want = KindBool }
}

// AsJSON requests structured coercion: the raw value must be valid JSON.
func AsJSON() Option {
	return func(r *request) { r.want = KindJSON }
}

// Validate attaches a custom validator run on the coerced value (whether it
// came from the environment or from the default). A non-nil error fails the
// lookup with ErrValidation carrying the validator's message.
func Validate(fn func(Value) error) Option {
	return func(r *request) { r.validate = fn }
}

// Get reads a named variable from the process environment, coerces it to the
// requested type, and applies defaulting and validation. It reads the
// environment on every call; nothing is cached, so runtime changes to the
// process environment are observed.
//
// When the variable is absent, not required, and no default is supplied, a
// string lookup returns String("") while every other type fails with
// ErrMissing: fabricating a zero number or bool would hide a deployment
// mistake, so the caller must either set the variable or declare a default.
func Get(name string, opts ...Option) (Value, error) {
	loadDotEnv()

	req := request{want: KindString}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}

	// The default's kind is checked up front, before the environment is even
	// consulted: a wrong-kind default is a bug at the call site and must not
	// be masked by the variable happening to be set.
	if req.hasDefault && !defaultMatches(req.def, req.want) {
		return Value{}, fmt.Errorf("env %s: %w: default is %s, requested type is %s",
			name, ErrMismatch, req.def.Kind(), kindName(req.want))
	}

	raw, ok := os.LookupEnv(name)
	if !ok {
		v, err := resolveAbsent(name, req)
		if err != nil {
			return Value{}, err
		}
		return runValidator(name, req, v)
	}

	v, err := coerce(raw, req.want)
	if err != nil {
		return Value{}, fmt.Errorf("env %s: %w: %w", name, ErrInvalidFormat, err)
	}

	return runValidator(name, req, v)
}

// MustGet is Get but panics on failure. Use it for variables the process
// cannot start without.
func MustGet(name string, opts ...Option) Value {
	v, err := Get(name, opts...)
	if err != nil {
		panic(fmt.Sprintf("envconfig: %v", err))
	}
	return v
}

func resolveAbsent(name string, req request) (Value, error) {
	if req.hasDefault {
		return req.def, nil
	}

	if req.required {
		return Value{}, fmt.Errorf("env %s: %w and is required", name, ErrMissing)
	}

	if req.want == KindString {
		return String(""), nil
	}

	return Value{}, fmt.Errorf("env %s: %w and no %s default is declared",
		name, ErrMissing, kindName(req.want))
}

func runValidator(name string, req request, v Value) (Value, error) {
	if req.validate == nil {
		return v, nil
	}

	if err := req.validate(v); err != nil {
		return Value{}, fmt.Errorf("env %s: %w: %w", name, ErrValidation, err)
	}

	return v, nil
}

func coerce(raw string, want Kind) (Value, error) {
	switch want {
	case KindString:
		return String(raw), nil
	case KindNumber:
		f, err := ParseNumber(raw)
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case KindBool:
		b, err := ParseBool(raw)
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case KindJSON:
		return ParseJSON(raw)
	default:
		return Value{}, fmt.Errorf("unsupported requested type %s", kindName(want))
	}
}

// defaultMatches reports whether a default value satisfies the requested
// type. KindJSON accepts any well-formed Value.
func defaultMatches(def Value, want Kind) bool {
	if want == KindJSON {
		return true
	}
	return def.Kind() == want
}

func kindName(k Kind) string {
	if k == KindJSON {
		return "json"
	}
	return k.String()
}
