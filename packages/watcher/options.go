package watcher

import (
	"runtime"

	"github.com/iotaledger/hive.go/logger"
	"go.uber.org/zap"
)

// Option represents the return type of optional parameters that can be handed into the constructor of the Watcher.
type Option func(*options)

// WithWorkerCount is an Option for the Watcher that sets how many reports are parsed in parallel.
func WithWorkerCount(workerCount int) Option {
	return func(options *options) {
		options.workerCount = workerCount
	}
}

// WithLogger is an Option for the Watcher that sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(options *options) {
		options.log = log
	}
}

type options struct {
	workerCount int
	log         *logger.Logger
}

func newOptions(option ...Option) (new *options) {
	new = &options{
		workerCount: runtime.NumCPU(),
		log:         zap.NewNop().Sugar(),
	}

	for _, opt := range option {
		opt(new)
	}

	return new
}
