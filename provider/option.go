package provider

import "github.com/rs/zerolog"

type options struct {
	start    int64
	prefix   string
	logger   zerolog.Logger
	onRewind func(from, to int64)
}

// Option configures a Configurable provider.
type Option func(*options)

// WithStart sets the position of the first generated ID. Defaults to 0.
func WithStart(position int64) Option {
	return func(o *options) {
		o.start = position
	}
}

// WithPrefix sets a string prepended to every ID.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithLogger sets the logger that receives the rewind warning. Defaults to
// a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRewindHook registers fn to be called whenever SetPosition moves the
// position backwards.
func WithRewindHook(fn func(from, to int64)) Option {
	return func(o *options) {
		o.onRewind = fn
	}
}
