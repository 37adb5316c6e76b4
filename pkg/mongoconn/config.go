package mongoconn

import (
	"crypto/tls"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/ageoftraders/appkit/pkg/envconfig"
	"github.com/ageoftraders/appkit/pkg/environment"
)

// Variables read by ConfigFromEnv.
const (
	EnvURI                    = "DATASTORE_URI"
	EnvDBName                 = "DATASTORE_DB_NAME"
	EnvSocketTimeout          = "SOCKET_TIMEOUT_MS"
	EnvServerSelectionTimeout = "SERVER_SELECTION_TIMEOUT_MS"
	EnvConnectTimeout         = "CONNECT_TIMEOUT_MS"
	EnvRetryInterval          = "RETRY_INTERVAL_MS"
)

// Tier-dependent defaults. Production gets the larger pool, longer timeouts,
// and the full retry budget; every other tier gets the lightweight settings.
const (
	defaultMaxPoolSize    uint64 = 10
	productionMaxPoolSize uint64 = 20

	defaultSocketTimeout    = 30 * time.Second
	productionSocketTimeout = 45 * time.Second

	defaultSelectionTimeout    = 5 * time.Second
	productionSelectionTimeout = 10 * time.Second

	defaultConnectTimeout = 10 * time.Second

	defaultRetryAttempts    = 1
	productionRetryAttempts = 3

	defaultRetryInterval = 2 * time.Second
)

// Config defines connection and retry behavior for the data store.
type Config struct {
	URI                    string
	Database               string
	Env                    environment.Environment
	MaxPoolSize            uint64
	SocketTimeout          time.Duration
	ServerSelectionTimeout time.Duration
	ConnectTimeout         time.Duration
	RetryAttempts          int
	RetryInterval          time.Duration
}

// ConfigFromEnv builds a Config from the process environment. The deployment
// tier is read first (RUNTIME_ENV, default development) and supplies the
// defaults for every tunable; explicit variables override them. Timeout
// variables are numbers of milliseconds and must be positive.
func ConfigFromEnv() (Config, error) {
	env, err := environment.Current()
	if err != nil {
		return Config{}, err
	}

	uri, err := envconfig.Get(EnvURI, envconfig.Required())
	if err != nil {
		return Config{}, err
	}

	db, err := envconfig.Get(EnvDBName, envconfig.Required())
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		URI:      uri.Text(),
		Database: db.Text(),
		Env:      env,
	}.withTierDefaults()

	if cfg.SocketTimeout, err = durationFromEnv(EnvSocketTimeout, cfg.SocketTimeout); err != nil {
		return Config{}, err
	}

	if cfg.ServerSelectionTimeout, err = durationFromEnv(EnvServerSelectionTimeout, cfg.ServerSelectionTimeout); err != nil {
		return Config{}, err
	}

	if cfg.ConnectTimeout, err = durationFromEnv(EnvConnectTimeout, cfg.ConnectTimeout); err != nil {
		return Config{}, err
	}

	if cfg.RetryInterval, err = durationFromEnv(EnvRetryInterval, cfg.RetryInterval); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) validate() error {
	if strings.TrimSpace(cfg.URI) == "" {
		return ErrEmptyURI
	}

	if strings.TrimSpace(cfg.Database) == "" {
		return ErrEmptyDatabase
	}

	return nil
}

// withTierDefaults fills zero-valued tunables with the defaults for the
// config's tier.
func (cfg Config) withTierDefaults() Config {
	prod := cfg.Env.IsProduction()

	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
		if prod {
			cfg.MaxPoolSize = productionMaxPoolSize
		}
	}

	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = defaultSocketTimeout
		if prod {
			cfg.SocketTimeout = productionSocketTimeout
		}
	}

	if cfg.ServerSelectionTimeout <= 0 {
		cfg.ServerSelectionTimeout = defaultSelectionTimeout
		if prod {
			cfg.ServerSelectionTimeout = productionSelectionTimeout
		}
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
		if prod {
			cfg.RetryAttempts = productionRetryAttempts
		}
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}

	return cfg
}

// clientOptions translates the config into driver options. Production adds
// the reliability flags: retryable writes and reads, majority write concern,
// secondary-preferred reads, TLS, and the admin auth source.
func (cfg Config) clientOptions(monitor *event.PoolMonitor) *options.ClientOptions {
	uri := cfg.URI
	if cfg.Env.IsProduction() {
		uri = withAuthSource(uri, "admin")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetTimeout(cfg.SocketTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetConnectTimeout(cfg.ConnectTimeout)

	if monitor != nil {
		opts.SetPoolMonitor(monitor)
	}

	if cfg.Env.IsProduction() {
		opts.SetRetryWrites(true).
			SetRetryReads(true).
			SetWriteConcern(writeconcern.Majority()).
			SetReadPreference(readpref.SecondaryPreferred())

		if !tlsImplied(uri) {
			opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
		}
	}

	return opts
}

// durationFromEnv reads a positive millisecond count, falling back to the
// tier default when the variable is unset.
func durationFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	v, err := envconfig.Get(name,
		envconfig.AsNumber(),
		envconfig.Default(envconfig.Number(float64(fallback.Milliseconds()))),
		envconfig.Validate(func(v envconfig.Value) error {
			if v.Float() <= 0 {
				return errors.New("must be a positive number of milliseconds")
			}
			return nil
		}),
	)
	if err != nil {
		return 0, err
	}

	return time.Duration(v.Float() * float64(time.Millisecond)), nil
}

// withAuthSource appends authSource to a connection string unless the URI
// already declares one.
func withAuthSource(uri, source string) string {
	if strings.Contains(uri, "authSource=") {
		return uri
	}

	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}

	return uri + sep + "authSource=" + source
}

// tlsImplied reports whether the URI scheme or parameters already enable TLS.
func tlsImplied(uri string) bool {
	return strings.HasPrefix(uri, "mongodb+srv://") ||
		strings.Contains(uri, "tls=true") ||
		strings.Contains(uri, "ssl=true")
}
