// Package environment identifies the deployment tier (development,
// production, or test) and propagates it through context and structured logs.
//
// The tier is read from the RUNTIME_ENV variable via Current, defaulting to
// development. Policy decisions elsewhere in the toolkit branch on
// IsProduction: the production tier gets the conservative connection
// settings, every other tier gets the lightweight ones.
package environment
