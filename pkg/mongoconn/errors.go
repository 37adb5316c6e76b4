package mongoconn

import "errors"

var (
	// ErrConnectFailed is returned when every allowed connect attempt failed.
	// It wraps the last underlying cause.
	ErrConnectFailed = errors.New("datastore connect failed")

	// ErrNotConnected is returned by Client and Database when no connection
	// is cached. It signals a caller-contract violation and never triggers
	// an implicit connect.
	ErrNotConnected = errors.New("datastore is not connected")

	// ErrDisconnectFailed wraps failures while closing the underlying client.
	ErrDisconnectFailed = errors.New("datastore disconnect failed")

	// ErrHealthcheckFailed wraps failed health probes.
	ErrHealthcheckFailed = errors.New("datastore healthcheck failed")

	// ErrEmptyURI is returned when a config carries no connection string.
	ErrEmptyURI = errors.New("datastore URI cannot be empty")

	// ErrEmptyDatabase is returned when a config carries no database name.
	ErrEmptyDatabase = errors.New("datastore database name cannot be empty")
)
