package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ageoftraders/appkit/pkg/envconfig"
)

// Environment represents the deployment tier the process runs in.
type Environment string

const (
	// Development for local development.
	Development Environment = "development"
	// Production for live deployments.
	Production Environment = "production"
	// Test for automated test runs.
	Test Environment = "test"
)

// EnvVar is the variable tier detection reads.
const EnvVar = "RUNTIME_ENV"

// ErrUnknown is returned when a raw value is not a recognized environment.
var ErrUnknown = errors.New("unknown runtime environment")

// Parse converts a raw string into an Environment. Only the canonical
// spellings development, production, and test are recognized.
func Parse(s string) (Environment, error) {
	switch Environment(s) {
	case Development, Production, Test:
		return Environment(s), nil
	default:
		return "", fmt.Errorf("%w: %q (expected development, production, or test)", ErrUnknown, s)
	}
}

// Current reads RUNTIME_ENV from the process environment, defaulting to
// Development when unset.
func Current() (Environment, error) {
	v, err := envconfig.Get(EnvVar,
		envconfig.Default(envconfig.String(string(Development))),
		envconfig.Validate(func(v envconfig.Value) error {
			_, err := Parse(v.Text())
			return err
		}),
	)
	if err != nil {
		return "", err
	}

	return Environment(v.Text()), nil
}

// IsProduction reports whether the environment is the production tier.
// Everything else is treated as non-production for policy decisions.
func (e Environment) IsProduction() bool { return e == Production }

// IsDevelopment reports whether the environment is the development tier.
func (e Environment) IsDevelopment() bool { return e == Development }

// IsTest reports whether the environment is the test tier.
func (e Environment) IsTest() bool { return e == Test }

func (e Environment) String() string { return string(e) }

type contextKey struct{}

// WithContext attaches the environment to a context.
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves the environment from a context, or "" when absent.
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(Environment)
	return env
}

// LoggerExtractor returns a context extractor that exposes the environment
// as an slog attribute.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if env := FromContext(ctx); env != "" {
			return slog.String("env", string(env)), true
		}
		return slog.Attr{}, false
	}
}
