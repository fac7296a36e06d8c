package paywall

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vitwit/x402-paywall/types"
)

// RejectionKind classifies why payment processing stopped.
type RejectionKind string

const (
	RejectionMissingPayment        RejectionKind = "MISSING_PAYMENT"
	RejectionInvalidPayload        RejectionKind = "INVALID_PAYLOAD"
	RejectionNoMatchingRequirement RejectionKind = "NO_MATCHING_REQUIREMENT"
	RejectionValidationFailed      RejectionKind = "VALIDATION_FAILED"
	RejectionVerificationFailed    RejectionKind = "VERIFICATION_FAILED"
	RejectionSettlementFailed      RejectionKind = "SETTLEMENT_FAILED"
	RejectionConfigurationError    RejectionKind = "CONFIGURATION_ERROR"
)

// Rejection is a terminal processing outcome: the payment was not accepted
// and the request must be answered with StatusCode and Response. It carries
// the requirements the caller may retry with.
type Rejection struct {
	Kind       RejectionKind
	StatusCode int
	Reason     string
	Accepts    []types.PaymentRequirements
	Err        error
}

func (r *Rejection) Error() string {
	if r.Reason != "" {
		return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
	}
	return string(r.Kind)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Response returns the JSON body to serve alongside StatusCode. Every
// rejection, not only the missing-header one, republishes the accepted
// requirements so the buyer can correct and retry.
func (r *Rejection) Response() *types.X402Response {
	return &types.X402Response{
		X402Version: int(types.X402Version1),
		Accepts:     r.Accepts,
		Error:       r.Reason,
	}
}

func (pw *Paywall) reject(kind RejectionKind, status int, err error, format string, args ...interface{}) *Rejection {
	reason := fmt.Sprintf(format, args...)
	rej := &Rejection{
		Kind:       kind,
		StatusCode: status,
		Reason:     reason,
		Accepts:    pw.Requirements(),
		Err:        err,
	}
	pw.logger.Debug("payment rejected", map[string]any{
		"kind":   string(kind),
		"status": status,
		"reason": reason,
	})
	pw.metrics.IncCounter("rejected_"+strings.ToLower(string(kind)), nil)
	return rej
}

func (pw *Paywall) rejectMissingPayment() *Rejection {
	return pw.reject(RejectionMissingPayment, http.StatusPaymentRequired, nil,
		"X-PAYMENT header is required")
}
