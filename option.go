package paywall

import (
	"time"

	"github.com/vitwit/x402-paywall/logger"
	"github.com/vitwit/x402-paywall/metrics"
)

type Option func(*Paywall)

func WithLogger(l logger.Logger) Option {
	return func(pw *Paywall) {
		pw.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(pw *Paywall) {
		pw.metrics = r
	}
}

// WithTimeout bounds each facilitator call made by the paywall. Zero means
// no paywall-level deadline; the facilitator client applies its own.
func WithTimeout(t time.Duration) Option {
	return func(pw *Paywall) {
		pw.timeout = t
	}
}
