package recovery

import (
	"time"

	"github.com/iotaledger/hive.go/logger"
	"go.uber.org/zap"
)

// region Option ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Option represents the return type of optional parameters that can be handed into the constructor of the Coordinator.
type Option func(*options)

// WithRetryInterval is an Option for the Coordinator that sets the delay between two attempts of a request.
func WithRetryInterval(retryInterval time.Duration) Option {
	return func(options *options) {
		options.retryInterval = retryInterval
	}
}

// WithMaxRequestCount is an Option for the Coordinator that sets after how many failed attempts a request is dropped.
func WithMaxRequestCount(maxRequestCount int) Option {
	return func(options *options) {
		options.maxRequestCount = maxRequestCount
	}
}

// WithRecentlyFetchedTTL is an Option for the Coordinator that sets for how long a fetched block is not requested again.
func WithRecentlyFetchedTTL(ttl time.Duration) Option {
	return func(options *options) {
		options.recentlyFetchedTTL = ttl
	}
}

// WithLogger is an Option for the Coordinator that sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(options *options) {
		options.log = log
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region options //////////////////////////////////////////////////////////////////////////////////////////////////////

type options struct {
	retryInterval      time.Duration
	maxRequestCount    int
	recentlyFetchedTTL time.Duration
	log                *logger.Logger
}

var defaultOptions = options{
	retryInterval:      10 * time.Second,
	maxRequestCount:    500,
	recentlyFetchedTTL: time.Minute,
	log:                zap.NewNop().Sugar(),
}

func newOptions(option ...Option) (new *options) {
	clonedDefaultOptions := defaultOptions
	for _, opt := range option {
		opt(&clonedDefaultOptions)
	}

	return &clonedDefaultOptions
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
