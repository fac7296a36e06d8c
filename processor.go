package paywall

import (
	"context"
	"net/http"
	"time"

	"github.com/vitwit/x402-paywall/schemes"
	"github.com/vitwit/x402-paywall/transport"
	"github.com/vitwit/x402-paywall/types"
)

// PaymentState records what has been established about an in-flight payment.
// Verified stays populated even when a later settlement attempt fails; the
// two outcomes are reported independently.
type PaymentState struct {
	Verified *types.VerifyResponse
	Settled  *types.SettleResponse
}

// Processor carries one decoded payment through verification and settlement.
// It is created by Paywall.Process, owned by a single request, and not safe
// for concurrent use.
type Processor struct {
	pw          *Paywall
	payload     *types.PaymentPayload
	scheme      schemes.Scheme
	requirement types.PaymentRequirements
	state       PaymentState
	skipVerify  bool
}

// Process decodes the X-PAYMENT header value, selects the accepted
// requirement the payment is attempting to satisfy, and runs the scheme's
// local validation. It performs no facilitator calls: every rejection it
// returns costs zero remote round-trips.
func (pw *Paywall) Process(header string) (*Processor, *Rejection) {
	if header == "" {
		return nil, pw.rejectMissingPayment()
	}

	payload, err := transport.DecodePaymentHeader(header)
	if err != nil {
		return nil, pw.reject(RejectionInvalidPayload, http.StatusBadRequest, err,
			"invalid X-PAYMENT header: %v", err)
	}

	registry := pw.currentRegistry()
	if !registry.KnownScheme(payload.Scheme) {
		schemeErr := transport.UnknownSchemeError(payload.Scheme)
		return nil, pw.reject(RejectionInvalidPayload, http.StatusBadRequest, schemeErr,
			"invalid X-PAYMENT header: %v", schemeErr)
	}

	scheme, requirement, ok := registry.Match(payload)
	if !ok {
		return nil, pw.reject(RejectionNoMatchingRequirement, http.StatusBadRequest, nil,
			"no accepted payment requirement matches scheme %q on network %q",
			payload.Scheme, payload.Network)
	}

	if err := scheme.ValidatePayload(payload, &requirement); err != nil {
		return nil, pw.reject(RejectionValidationFailed, http.StatusBadRequest, err,
			"payment failed validation: %v", err)
	}

	pw.logger.Debug("payment matched", map[string]any{
		"scheme":  payload.Scheme,
		"network": payload.Network,
	})

	return &Processor{
		pw:          pw,
		payload:     payload,
		scheme:      scheme,
		requirement: requirement,
	}, nil
}

// Verify submits the payment to the facilitator for verification and records
// the result. A facilitator that answers "invalid" yields a 402 rejection;
// a facilitator that cannot be reached yields a 500 rejection, both of kind
// VERIFICATION_FAILED.
func (p *Processor) Verify(ctx context.Context) *Rejection {
	pw := p.pw

	if p.state.Settled != nil {
		return pw.reject(RejectionConfigurationError, http.StatusInternalServerError, nil,
			"cannot verify a payment that is already settled")
	}
	if p.skipVerify {
		return pw.reject(RejectionConfigurationError, http.StatusInternalServerError, nil,
			"verification was explicitly skipped for this payment")
	}
	if p.state.Verified != nil {
		return pw.reject(RejectionConfigurationError, http.StatusInternalServerError, nil,
			"payment is already verified")
	}

	callCtx, cancel := pw.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := pw.facilitator.Verify(callCtx, &types.VerifyRequest{
		X402Version:         int(types.X402Version1),
		PaymentPayload:      *p.payload,
		PaymentRequirements: p.requirement,
	})
	pw.metrics.ObserveLatency("verify", time.Since(start), map[string]string{
		"network": p.payload.Network,
	})
	if err != nil {
		return pw.reject(RejectionVerificationFailed, http.StatusInternalServerError, err,
			"facilitator verify failed: %v", err)
	}

	if !resp.IsValid {
		reason := resp.InvalidReason
		if reason == "" {
			reason = "facilitator rejected the payment"
		}
		return pw.reject(RejectionVerificationFailed, http.StatusPaymentRequired, nil,
			"payment verification failed: %s", reason)
	}

	p.state.Verified = resp
	pw.metrics.IncCounter("payment_verified", map[string]string{"network": p.payload.Network})
	pw.logger.Info("payment verified", map[string]any{
		"network": p.payload.Network,
		"payer":   resp.Payer,
	})

	return nil
}

// SkipVerification puts the payment in trust mode: Settle may be called
// without a prior Verify. It is an explicit opt-in for callers that accept
// the risk of settling unverified payments.
func (p *Processor) SkipVerification() error {
	if p.state.Verified != nil {
		return types.NewX402Error(types.ErrConfigError, "payment is already verified")
	}
	if p.state.Settled != nil {
		return types.NewX402Error(types.ErrConfigError, "payment is already settled")
	}
	p.skipVerify = true
	return nil
}

// Settle submits the payment to the facilitator for settlement and records
// the receipt. Settling requires a prior successful Verify or an explicit
// SkipVerification; anything else is a configuration error. A failed
// settlement never clears the recorded verification result: callers that ran
// their handler before settling can see both facts and decide what to serve.
func (p *Processor) Settle(ctx context.Context) *Rejection {
	pw := p.pw

	if p.state.Settled != nil {
		return pw.reject(RejectionConfigurationError, http.StatusInternalServerError, nil,
			"payment is already settled")
	}
	if p.state.Verified == nil && !p.skipVerify {
		return pw.reject(RejectionConfigurationError, http.StatusInternalServerError, nil,
			"settlement requires verification; call Verify or SkipVerification first")
	}

	callCtx, cancel := pw.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := pw.facilitator.Settle(callCtx, &types.SettleRequest{
		X402Version:         int(types.X402Version1),
		PaymentPayload:      *p.payload,
		PaymentRequirements: p.requirement,
	})
	pw.metrics.ObserveLatency("settle", time.Since(start), map[string]string{
		"network": p.payload.Network,
	})
	if err != nil {
		return pw.reject(RejectionSettlementFailed, http.StatusInternalServerError, err,
			"facilitator settle failed: %v", err)
	}

	if !resp.Success {
		reason := resp.ErrorReason
		if reason == "" {
			reason = "facilitator could not settle the payment"
		}
		return pw.reject(RejectionSettlementFailed, http.StatusPaymentRequired, nil,
			"payment settlement failed: %s", reason)
	}

	p.state.Settled = resp
	pw.metrics.IncCounter("payment_settled", map[string]string{"network": p.payload.Network})
	pw.logger.Info("payment settled", map[string]any{
		"network":     resp.Network,
		"payer":       resp.Payer,
		"transaction": resp.Transaction,
	})

	return nil
}

// State returns what has been established about the payment so far.
func (p *Processor) State() PaymentState {
	return p.state
}

// Payload returns the decoded client payment payload.
func (p *Processor) Payload() *types.PaymentPayload {
	return p.payload
}

// Requirement returns the accepted requirement the payment matched.
func (p *Processor) Requirement() types.PaymentRequirements {
	return p.requirement
}

// Payer returns the paying address as reported by settlement, falling back
// to the verification result, or "" if neither established one.
func (p *Processor) Payer() string {
	if p.state.Settled != nil && p.state.Settled.Payer != "" {
		return p.state.Settled.Payer
	}
	if p.state.Verified != nil {
		return p.state.Verified.Payer
	}
	return ""
}

// ResponseHeader encodes the settlement receipt as the X-PAYMENT-RESPONSE
// header value. It fails if the payment has not been settled.
func (p *Processor) ResponseHeader() (string, error) {
	if p.state.Settled == nil {
		return "", types.NewX402Error(types.ErrConfigError, "payment is not settled")
	}
	return transport.EncodeSettleResponse(p.state.Settled)
}
