package services

import (
	"time"

	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/metrics"
)

type options struct {
	now     func() time.Time
	metrics metrics.Collector
	audit   audit.Recorder
}

// Option overrides a collaborator shared by the services.
type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(o *options) {
		o.metrics = collector
	}
}

func WithAudit(recorder audit.Recorder) Option {
	return func(o *options) {
		o.audit = recorder
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:     time.Now,
		metrics: metrics.NoOpCollector{},
		audit:   audit.Discard{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
