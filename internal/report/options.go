package report

import "fluxo/internal/core"

// Option tunes how a report treats questionable input.
type Option func(*options)

type options struct {
	onBadDate func(core.Transaction)
}

// WithBadDateHook is called for every transaction whose date could not be
// parsed and was counted as today instead.
func WithBadDateHook(fn func(core.Transaction)) Option {
	return func(o *options) {
		o.onBadDate = fn
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o options) badDate(t core.Transaction) {
	if o.onBadDate != nil {
		o.onBadDate(t)
	}
}
