package cbf

import (
	"github.com/go-kit/log"
)

type options struct {
	logger    log.Logger
	strictCIF bool
	title     string
}

// Option configures Read and Write.
type Option func(*options)

// WithLogger sends warnings and diagnostics to logger. The default discards
// them.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrictCIF makes malformed CIF fields in the text header a
// StructuralError instead of a warning.
func WithStrictCIF() Option {
	return func(o *options) { o.strictCIF = true }
}

// WithTitle names the CIF data block on write, overriding the image name.
func WithTitle(name string) Option {
	return func(o *options) { o.title = name }
}

func newOptions(opts []Option) options {
	o := options{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
