// Package redisconn establishes verified connections to the Redis cache
// backing short-lived application state.
//
// Connect parses the configured URL, dials, and confirms the server answers
// a ping before handing the client out. Transient failures are retried a
// bounded number of times with a fixed interval, and the whole operation is
// capped by a connect timeout so process startup cannot hang on a dead
// cache. Configuration is environment-driven through ConfigFromEnv.
//
// Unlike the data-store manager in pkg/mongoconn, this package does not
// cache a singleton client: cache connections are cheap to re-establish and
// the application owns the returned client's lifecycle.
package redisconn
