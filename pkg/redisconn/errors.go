package redisconn

import "errors"

var (
	// ErrBadURL is returned when the connection URL cannot be parsed.
	ErrBadURL = errors.New("cache connection URL is invalid")

	// ErrNotReady is returned when the cache did not accept a connection
	// within the retry budget.
	ErrNotReady = errors.New("cache did not become ready")

	// ErrHealthcheckFailed wraps failed health probes.
	ErrHealthcheckFailed = errors.New("cache healthcheck failed")
)
