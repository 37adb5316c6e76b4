package redisconn

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ageoftraders/appkit/pkg/envconfig"
)

// Variables read by ConfigFromEnv.
const (
	EnvURL            = "CACHE_URL"
	EnvRetryAttempts  = "CACHE_RETRY_ATTEMPTS"
	EnvRetryInterval  = "CACHE_RETRY_INTERVAL_MS"
	EnvConnectTimeout = "CACHE_CONNECT_TIMEOUT_MS"
)

// Config defines connection and retry behavior for the cache store.
type Config struct {
	URL            string
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// ConfigFromEnv builds a Config from the process environment.
func ConfigFromEnv() (Config, error) {
	url, err := envconfig.Get(EnvURL, envconfig.Required())
	if err != nil {
		return Config{}, err
	}

	attempts, err := envconfig.Get(EnvRetryAttempts,
		envconfig.AsNumber(),
		envconfig.Default(envconfig.Number(3)),
		envconfig.Validate(positive),
	)
	if err != nil {
		return Config{}, err
	}

	interval, err := envconfig.Get(EnvRetryInterval,
		envconfig.AsNumber(),
		envconfig.Default(envconfig.Number(2000)),
		envconfig.Validate(positive),
	)
	if err != nil {
		return Config{}, err
	}

	timeout, err := envconfig.Get(EnvConnectTimeout,
		envconfig.AsNumber(),
		envconfig.Default(envconfig.Number(30000)),
		envconfig.Validate(positive),
	)
	if err != nil {
		return Config{}, err
	}

	return Config{
		URL:            url.Text(),
		RetryAttempts:  int(attempts.Float()),
		RetryInterval:  time.Duration(interval.Float() * float64(time.Millisecond)),
		ConnectTimeout: time.Duration(timeout.Float() * float64(time.Millisecond)),
	}, nil
}

func positive(v envconfig.Value) error {
	if v.Float() <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// Connect establishes a ping-verified connection to the cache, retrying up
// to the config's attempt budget with a fixed interval between tries.
// Clients that fail verification are closed before the next try. The overall
// operation is bounded by the config's connect timeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrBadURL, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)

		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}

		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrNotReady
}

// Healthcheck returns a probe function suitable for readiness endpoints.
func Healthcheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
