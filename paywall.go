// Package paywall implements the seller side of the x402 payment protocol:
// it publishes payment requirements for protected resources, decodes and
// validates X-PAYMENT headers, verifies and settles payments through a
// remote facilitator, and attaches settlement receipts to responses.
package paywall

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/vitwit/x402-paywall/facilitator"
	"github.com/vitwit/x402-paywall/logger"
	"github.com/vitwit/x402-paywall/metrics"
	"github.com/vitwit/x402-paywall/schemes"
	"github.com/vitwit/x402-paywall/types"
)

// Facilitator verifies and settles payments on behalf of the seller.
// facilitator.Client is the HTTP implementation.
type Facilitator interface {
	Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerifyResponse, error)
	Settle(ctx context.Context, req *types.SettleRequest) (*types.SettleResponse, error)
	Supported(ctx context.Context) (*types.SupportedResponse, error)
}

var _ Facilitator = (*facilitator.Client)(nil)

// Paywall is the main struct that guards paid resources. It holds the
// accepted payment schemes and the facilitator used to verify and settle.
type Paywall struct {
	facilitator Facilitator

	mu       sync.RWMutex
	registry *schemes.Registry

	logger  logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
}

// New creates a Paywall from a facilitator and an ordered list of accepted
// payment schemes. Order matters: an incoming payment is matched against
// the schemes in the order given, first match wins.
func New(f Facilitator, accepts []schemes.Scheme, opts ...Option) (*Paywall, error) {
	if f == nil {
		return nil, types.NewX402Error(types.ErrConfigError, "facilitator is required")
	}
	if len(accepts) == 0 {
		return nil, types.NewX402Error(types.ErrConfigError, "at least one payment scheme is required")
	}

	pw := &Paywall{
		facilitator: f,
		registry:    schemes.NewRegistry(accepts...),
		logger:      logger.NoopLogger{},
		metrics:     metrics.NoopRecorder{},
	}

	for _, opt := range opts {
		opt(pw)
	}

	return pw, nil
}

// Requirements returns the payment requirements currently offered to
// buyers, in scheme registration order.
func (pw *Paywall) Requirements() []types.PaymentRequirements {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.registry.Requirements()
}

func (pw *Paywall) currentRegistry() *schemes.Registry {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.registry
}

// UpdateAccepts asks the facilitator which (version, scheme, network) kinds
// it can process and narrows the offered requirements to those, merging any
// facilitator-provided extra fields (such as a sponsored fee payer) into the
// matching requirements. Typically called once at startup.
func (pw *Paywall) UpdateAccepts(ctx context.Context) error {
	ctx, cancel := pw.callContext(ctx)
	defer cancel()

	supported, err := pw.facilitator.Supported(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch supported payment kinds: %w", err)
	}

	current := pw.currentRegistry()
	filtered := current.Filter(supported.Kinds)
	if filtered.Len() == 0 {
		return types.NewX402Error(types.ErrConfigError,
			"facilitator supports none of the configured payment schemes")
	}

	if dropped := current.Len() - filtered.Len(); dropped > 0 {
		pw.logger.Warn("dropped payment schemes unsupported by facilitator", map[string]any{
			"configured": current.Len(),
			"supported":  filtered.Len(),
		})
	}

	pw.mu.Lock()
	pw.registry = filtered
	pw.mu.Unlock()

	return nil
}

// callContext applies the configured facilitator call timeout, if any.
func (pw *Paywall) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if pw.timeout > 0 {
		return context.WithTimeout(ctx, pw.timeout)
	}
	return ctx, func() {}
}

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = 1
)

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	return map[string]interface{}{
		"library_version":  Version,
		"protocol_version": ProtocolVersion,
		"go_version":       runtime.Version(),
		"supported_schemes": []string{
			"exact",
		},
		"supported_standards": []string{
			"erc20", "spl", "native",
		},
	}
}
