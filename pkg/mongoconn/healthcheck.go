package mongoconn

import (
	"context"
	"errors"
)

// Healthcheck returns a probe function suitable for readiness and liveness
// endpoints. It pings over the cached connection and fails with
// ErrNotConnected when nothing is cached; it never dials.
func Healthcheck(m *Manager) func(context.Context) error {
	return func(ctx context.Context) error {
		client, err := m.Client()
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}

		if err := m.dial.ping(ctx, client); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}

		return nil
	}
}
