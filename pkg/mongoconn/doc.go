// Package mongoconn manages a single cached MongoDB connection for the
// lifetime of the process.
//
// The Manager lazily dials on the first Connect call and hands the same
// client to every later caller. Callers that arrive while a dial is in
// flight wait on that same attempt instead of starting their own, so a burst
// of concurrent first requests produces exactly one connection. Transient
// dial failures are retried a bounded number of times with a fixed delay;
// configuration mistakes fail immediately.
//
// Configuration comes from the process environment (see ConfigFromEnv) and
// depends on the deployment tier: production deployments get a larger pool,
// longer timeouts, a bigger retry budget, and the reliability flags
// (retryable writes and reads, majority write concern, secondary-preferred
// reads, TLS, admin auth source). All of it can be overridden per variable.
//
// # Usage
//
//	mgr := mongoconn.New(mongoconn.WithLogger(log))
//
//	client, err := mgr.Connect(ctx)
//	if err != nil {
//		// handle error
//	}
//	defer mgr.Disconnect(context.Background())
//
//	db, err := mgr.Database()
//
// # Lifecycle
//
// The cached connection survives until Disconnect is called or the driver
// reports the pool cleared, at which point the cache resets and the next
// Connect dials fresh. Client and Database are precondition checks: they
// fail with ErrNotConnected rather than connecting implicitly, which keeps
// accidental dials out of request paths that must not block.
//
// # Error Handling
//
// Sentinel errors support errors.Is: ErrConnectFailed carries the last
// underlying cause after the retry budget is exhausted, ErrNotConnected
// flags calls made before Connect succeeded, and configuration errors from
// envconfig pass through unchanged.
package mongoconn
