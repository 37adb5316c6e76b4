package mongoconn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ageoftraders/appkit/pkg/environment"
)

// fakeStore stubs the driver so tests can count dials and script failures
// without a server. Each successful dial hands out a distinct client pointer
// so identity assertions are meaningful.
type fakeStore struct {
	dials       atomic.Int32
	pings       atomic.Int32
	disconnects atomic.Int32

	failDials int32         // fail this many leading dials
	gate      chan struct{} // when set, dials block until the gate closes
	dialErr   error
}

func (f *fakeStore) dialer() dialer {
	return dialer{
		connect: func(_ *options.ClientOptions) (*mongo.Client, error) {
			if f.gate != nil {
				<-f.gate
			}
			n := f.dials.Add(1)
			if n <= f.failDials {
				if f.dialErr != nil {
					return nil, f.dialErr
				}
				return nil, errors.New("connection refused")
			}
			return &mongo.Client{}, nil
		},
		ping: func(_ context.Context, _ *mongo.Client) error {
			f.pings.Add(1)
			return nil
		},
		disconnect: func(_ context.Context, _ *mongo.Client) error {
			f.disconnects.Add(1)
			return nil
		},
	}
}

func testConfig() Config {
	return Config{
		URI:           "mongodb://localhost:27017",
		Database:      "app",
		Env:           environment.Test,
		RetryAttempts: 3,
		RetryInterval: time.Millisecond,
	}
}

func newTestManager(t *testing.T, cfg Config, f *fakeStore) *Manager {
	t.Helper()

	m := New(WithConfig(cfg))
	m.dial = f.dialer()
	m.sleep = func(time.Duration) {}

	return m
}

func TestConnect_Establishes(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	require.Equal(t, StateDisconnected, m.State())

	client, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, StateConnected, m.State())
	assert.EqualValues(t, 1, f.dials.Load())
	assert.EqualValues(t, 1, f.pings.Load(), "every dial must be ping-verified")
}

func TestConnect_CacheHit(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	second, err := m.Connect(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "a connected manager must return the cached handle")
	assert.EqualValues(t, 1, f.dials.Load(), "a cache hit must not dial")
}

func TestConnect_CoalescesConcurrentCallers(t *testing.T) {
	t.Parallel()

	f := &fakeStore{gate: make(chan struct{})}
	m := newTestManager(t, testConfig(), f)

	const callers = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		clients = make(map[*mongo.Client]int)
	)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := m.Connect(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			clients[client]++
			mu.Unlock()
		}()
	}

	// Give every caller a chance to queue behind the in-flight attempt,
	// then release the dial.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateConnecting, m.State())
	close(f.gate)
	wg.Wait()

	assert.EqualValues(t, 1, f.dials.Load(), "concurrent callers must share one dial")
	require.Len(t, clients, 1, "all callers must receive the same handle")
	for _, count := range clients {
		assert.Equal(t, callers, count)
	}
}

func TestConnect_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	f := &fakeStore{failDials: 2}
	m := New(WithConfig(testConfig()))
	m.dial = f.dialer()

	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }

	client, err := m.Connect(context.Background())
	require.NoError(t, err, "succeeding on the last allowed attempt is overall success")
	require.NotNil(t, client)
	assert.EqualValues(t, 3, f.dials.Load())
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, slept,
		"a fixed interval must separate consecutive attempts")
}

func TestConnect_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	cause := errors.New("auth failed")
	f := &fakeStore{failDials: 3, dialErr: cause}
	m := newTestManager(t, testConfig(), f)

	_, err := m.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.ErrorIs(t, err, cause, "the last underlying cause must be preserved")
	assert.EqualValues(t, 3, f.dials.Load())
	assert.Equal(t, StateDisconnected, m.State(), "exhausted retries must reset the state")

	// A later call starts from scratch rather than replaying the failure.
	client, err := m.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.EqualValues(t, 4, f.dials.Load())
}

func TestConnect_ConfigErrorNotRetried(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, Config{URI: "mongodb://localhost:27017"}, f)

	var slept int
	m.sleep = func(time.Duration) { slept++ }

	_, err := m.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDatabase)
	assert.NotErrorIs(t, err, ErrConnectFailed, "config errors must pass through unchanged")
	assert.EqualValues(t, 0, f.dials.Load(), "a malformed config must abort before any dial")
	assert.Zero(t, slept)
}

func TestConnect_FailureSharedWithAllWaiters(t *testing.T) {
	t.Parallel()

	f := &fakeStore{failDials: 3, gate: make(chan struct{})}
	m := newTestManager(t, testConfig(), f)

	const callers = 5

	errs := make(chan error, callers)
	for range callers {
		go func() {
			_, err := m.Connect(context.Background())
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(f.gate)

	for range callers {
		err := <-errs
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConnectFailed)
	}

	assert.EqualValues(t, 3, f.dials.Load(), "waiters must share the one retry budget")
}

func TestConnect_WaiterAbandonsOnCancel(t *testing.T) {
	t.Parallel()

	f := &fakeStore{gate: make(chan struct{})}
	m := newTestManager(t, testConfig(), f)

	go func() {
		_, _ = m.Connect(context.Background())
	}()

	// Wait for the attempt to be in flight.
	require.Eventually(t, func() bool { return m.State() == StateConnecting },
		time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled, "a cancelled waiter abandons the wait")

	// The attempt itself still runs to completion.
	close(f.gate)
	require.Eventually(t, func() bool { return m.State() == StateConnected },
		time.Second, time.Millisecond)
	assert.EqualValues(t, 1, f.dials.Load())
}

func TestClient_Precondition(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	_, err := m.Client()
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.EqualValues(t, 0, f.dials.Load(), "Client must never dial implicitly")

	connected, err := m.Connect(context.Background())
	require.NoError(t, err)

	got, err := m.Client()
	require.NoError(t, err)
	assert.Same(t, connected, got)

	require.NoError(t, m.Disconnect(context.Background()))

	_, err = m.Client()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDatabase_Precondition(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	_, err := m.Database()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnect_Idempotent(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	require.NoError(t, m.Disconnect(context.Background()), "disconnecting a disconnected manager is a no-op")
	assert.EqualValues(t, 0, f.disconnects.Load())

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Disconnect(context.Background()))
	require.NoError(t, m.Disconnect(context.Background()))
	assert.EqualValues(t, 1, f.disconnects.Load(), "only the first disconnect closes the client")
}

func TestDisconnect_ClearsHandleOnCloseFailure(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	d := f.dialer()
	d.disconnect = func(context.Context, *mongo.Client) error {
		return errors.New("close timed out")
	}
	m.dial = d

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	err = m.Disconnect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDisconnectFailed)
	assert.Equal(t, StateDisconnected, m.State(), "the handle must be cleared even when close fails")
}

func TestConnectionLost_Invalidation(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	m.connectionLost("localhost:27017")
	assert.Equal(t, StateDisconnected, m.State())

	_, err = m.Client()
	assert.ErrorIs(t, err, ErrNotConnected, "a lost connection must not leave a stale handle")

	second, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.dials.Load(), "reconnect after loss must dial fresh")
	assert.NotSame(t, first, second)
}

func TestRoundTrip_FreshHandle(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Disconnect(context.Background()))

	second, err := m.Connect(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second, "a reconnect must yield an independent handle")
	assert.EqualValues(t, 2, f.dials.Load())
	assert.EqualValues(t, 1, f.disconnects.Load())
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	m := newTestManager(t, testConfig(), f)

	probe := Healthcheck(m)

	err := probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = m.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, probe(context.Background()))

	d := f.dialer()
	d.ping = func(context.Context, *mongo.Client) error {
		return errors.New("server unreachable")
	}
	m.dial = d

	err = probe(context.Background())
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
}
