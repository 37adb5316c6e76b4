package mongoconn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// State describes the manager's connection lifecycle position.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// dialer abstracts the driver calls so tests can stub attempts and count
// them without a running server.
type dialer struct {
	connect    func(opts *options.ClientOptions) (*mongo.Client, error)
	ping       func(ctx context.Context, client *mongo.Client) error
	disconnect func(ctx context.Context, client *mongo.Client) error
}

func driverDialer() dialer {
	return dialer{
		connect: func(opts *options.ClientOptions) (*mongo.Client, error) {
			return mongo.Connect(opts)
		},
		ping: func(ctx context.Context, client *mongo.Client) error {
			return client.Ping(ctx, nil)
		},
		disconnect: func(ctx context.Context, client *mongo.Client) error {
			return client.Disconnect(ctx)
		},
	}
}

// pending is the single shared in-flight connect attempt. Concurrent callers
// wait on the same done channel instead of dialing independently.
type pending struct {
	done   chan struct{}
	client *mongo.Client
	err    error
}

func (p *pending) wait(ctx context.Context) (*mongo.Client, error) {
	select {
	case <-p.done:
		return p.client, p.err
	case <-ctx.Done():
		// The attempt keeps running for the remaining waiters; this caller
		// merely stops waiting for its result.
		return nil, ctx.Err()
	}
}

// Manager owns a single cached connection to the data store. Connect is safe
// for concurrent use: callers arriving while an attempt is in flight join it
// rather than starting another. The cache lives for the process lifetime and
// is reset whenever the connection is closed or lost, so a later Connect
// dials fresh.
type Manager struct {
	mu       sync.Mutex
	client   *mongo.Client
	pend     *pending
	database string
	connID   string

	loadConfig func() (Config, error)
	dial       dialer
	sleep      func(time.Duration)
	log        *slog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger. Without it the manager is silent.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithConfig pins a fixed config instead of reading the environment on every
// connect attempt. Zero-valued tunables are filled with tier defaults.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.loadConfig = func() (Config, error) {
			full := cfg.withTierDefaults()
			if err := full.validate(); err != nil {
				return Config{}, err
			}
			return full, nil
		}
	}
}

// New constructs a disconnected Manager. No I/O happens until Connect.
func New(opts ...Option) *Manager {
	m := &Manager{
		loadConfig: ConfigFromEnv,
		dial:       driverDialer(),
		sleep:      time.Sleep,
		log:        slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Connect returns the cached connection, establishing it first if needed.
//
// When already connected it returns the cached handle without I/O. When an
// attempt is in flight the caller waits on that same attempt. Otherwise it
// atomically publishes a new attempt and every caller arriving during the
// connecting window receives its outcome. The attempt itself is detached
// from any single caller's context: cancelling ctx abandons the wait, not
// the dial.
//
// Failures during the dial are retried up to the config's attempt budget
// with a fixed interval between tries. Configuration errors abort
// immediately; they are deployment mistakes, not transient faults. When all
// attempts fail, every waiter receives ErrConnectFailed wrapping the last
// cause and the manager returns to the disconnected state so a future call
// can start over.
func (m *Manager) Connect(ctx context.Context) (*mongo.Client, error) {
	m.mu.Lock()

	if m.client != nil {
		client := m.client
		m.mu.Unlock()

		return client, nil
	}

	if p := m.pend; p != nil {
		m.mu.Unlock()

		return p.wait(ctx)
	}

	p := &pending{done: make(chan struct{})}
	m.pend = p
	m.mu.Unlock()

	go m.run(p)

	return p.wait(ctx)
}

// run executes the attempt and publishes its outcome. The pending marker is
// cleared before done is closed, so no caller can observe a resolved attempt
// still registered as in flight.
func (m *Manager) run(p *pending) {
	client, database, err := m.attempt()

	p.client = client
	p.err = err

	m.mu.Lock()
	if err == nil {
		m.client = client
		m.database = database
		m.connID = uuid.NewString()
	}
	if m.pend == p {
		m.pend = nil
	}
	connID := m.connID
	m.mu.Unlock()

	close(p.done)

	if err == nil {
		m.log.Info("datastore connected", "conn_id", connID, "database", database)
	}
}

// attempt dials the store with bounded retry and returns a verified client.
func (m *Manager) attempt() (*mongo.Client, string, error) {
	cfg, err := m.loadConfig()
	if err != nil {
		m.log.Error("datastore configuration invalid", "error", err)

		return nil, "", err
	}

	opts := cfg.clientOptions(m.poolMonitor())

	var lastErr error

	for i := range cfg.RetryAttempts {
		if i > 0 {
			m.sleep(cfg.RetryInterval)
		}

		client, err := m.dial.connect(opts)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerSelectionTimeout)
			err = m.dial.ping(pingCtx, client)
			cancel()

			if err == nil {
				return client, cfg.Database, nil
			}

			// Tear down the half-open client before retrying.
			if discErr := m.dial.disconnect(context.Background(), client); discErr != nil {
				m.log.Warn("failed to close client after ping failure", "error", discErr)
			}
		}

		lastErr = err
		m.log.Warn("datastore connect attempt failed",
			"attempt", i+1, "attempts", cfg.RetryAttempts, "error", err)
	}

	return nil, "", fmt.Errorf("%w: %w", ErrConnectFailed, lastErr)
}

// poolMonitor invalidates the cache when the driver reports the connection
// pool was cleared, which is how unexpected connectivity loss surfaces.
func (m *Manager) poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			if e.Type == event.ConnectionPoolCleared {
				m.connectionLost(e.Address)
			}
		},
	}
}

// connectionLost resets the cache so the next Connect dials fresh. A live
// in-flight attempt is left alone; its waiters still coalesce on it. A
// resolved attempt that somehow lingers is discarded along with the handle.
func (m *Manager) connectionLost(address string) {
	m.mu.Lock()

	hadClient := m.client != nil
	connID := m.connID
	m.client = nil
	m.database = ""
	m.connID = ""

	if p := m.pend; p != nil {
		select {
		case <-p.done:
			m.pend = nil
		default:
		}
	}

	m.mu.Unlock()

	if hadClient {
		m.log.Warn("datastore connection lost", "conn_id", connID, "address", address)
	}
}

// Disconnect closes the cached connection and resets the manager. It is a
// no-op when nothing is connected, including while an attempt is in flight.
// The handle is cleared even when the underlying close fails so callers
// cannot keep operating on a half-closed client.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	connID := m.connID
	m.client = nil
	m.database = ""
	m.connID = ""
	m.mu.Unlock()

	if client == nil {
		return nil
	}

	if err := m.dial.disconnect(ctx, client); err != nil {
		return fmt.Errorf("%w: %w", ErrDisconnectFailed, err)
	}

	m.log.Info("datastore disconnected", "conn_id", connID)

	return nil
}

// Client returns the cached connection. It fails with ErrNotConnected when
// no connection is established and never dials implicitly.
func (m *Manager) Client() (*mongo.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil, ErrNotConnected
	}

	return m.client, nil
}

// Database returns a handle to the configured database on the cached
// connection, with the same precondition as Client.
func (m *Manager) Database() (*mongo.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil, ErrNotConnected
	}

	return m.client.Database(m.database), nil
}

// State reports the current lifecycle position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.client != nil:
		return StateConnected
	case m.pend != nil:
		return StateConnecting
	default:
		return StateDisconnected
	}
}
