package app

import "time"

type storeOptions struct {
	now func() time.Time
}

// StoreOption tunes a session or room store.
type StoreOption func(*storeOptions)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.now = now }
}

func buildOptions(opts []StoreOption) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
