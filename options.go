package fiber

import "github.com/joeycumines/logiface"

// systemOptions holds configuration resolved by [New].
type systemOptions struct {
	workers int
	logger  *logiface.Logger[logiface.Event]
}

// SystemOption configures a [System].
type SystemOption interface {
	applySystem(*systemOptions)
}

type systemOptionImpl struct {
	applySystemFunc func(*systemOptions)
}

func (o *systemOptionImpl) applySystem(opts *systemOptions) {
	o.applySystemFunc(opts)
}

// WithWorkers sets the number of worker schedulers. The default (and the
// value used for n <= 0) is the number of CPUs.
func WithWorkers(n int) SystemOption {
	return &systemOptionImpl{func(opts *systemOptions) {
		opts.workers = n
	}}
}

// WithLogger attaches a structured logger to the system. The runtime logs
// at debug level only (dead letters, crashes, lifecycle); a nil logger
// disables logging at zero cost.
func WithLogger(logger *logiface.Logger[logiface.Event]) SystemOption {
	return &systemOptionImpl{func(opts *systemOptions) {
		opts.logger = logger
	}}
}

func resolveSystemOptions(opts []SystemOption) *systemOptions {
	cfg := &systemOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applySystem(cfg)
	}
	return cfg
}
