package discovery

import (
	"time"

	"go.uber.org/zap"

	domtrending "github.com/lumenpress/discovery/internal/domain/trending"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs       []string
	password    string
	callTimeout time.Duration
	log         *zap.Logger
	weights     *domtrending.Weights
}

// WithRedis connects to a Redis deployment.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithValkey connects to a Valkey deployment. The wire protocol is the
// same; the separate option keeps call sites honest about what they run.
func WithValkey(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithPassword sets the database password.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithCallTimeout bounds every store call. Zero means no per-call bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.callTimeout = d
	}
}

// WithLogger sets the logger used by the embedded services. Defaults to
// a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *clientConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTrendingWeights overrides the per-interaction trending weights.
// Recency decay and the verified boost keep their defaults.
func WithTrendingWeights(view, like, comment, share float64) Option {
	return func(c *clientConfig) {
		c.weights = &domtrending.Weights{
			View:    view,
			Like:    like,
			Comment: comment,
			Share:   share,
		}
	}
}
