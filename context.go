package paywall

import (
	"context"

	"github.com/vitwit/x402-paywall/types"
)

// PaymentDetails is the payment information the middleware attaches to the
// request context before invoking the protected handler.
type PaymentDetails struct {
	// Payload is the decoded client payment.
	Payload *types.PaymentPayload

	// Requirement is the accepted payment option the payload matched.
	Requirement types.PaymentRequirements

	// Verified is the facilitator's verification result; nil when
	// verification was skipped.
	Verified *types.VerifyResponse

	// Settled is the settlement receipt. In the default flow settlement runs
	// after the handler, so this is nil inside the handler; the pre-payment
	// flow populates it.
	Settled *types.SettleResponse

	// Payer is the paying address, when one has been established.
	Payer string
}

type paymentContextKey struct{}

func withPayment(ctx context.Context, d *PaymentDetails) context.Context {
	return context.WithValue(ctx, paymentContextKey{}, d)
}

// PaymentFromContext extracts the payment details attached by the paywall
// middleware. The second return is false when the request did not pass
// through the middleware.
func PaymentFromContext(ctx context.Context) (*PaymentDetails, bool) {
	d, ok := ctx.Value(paymentContextKey{}).(*PaymentDetails)
	return d, ok
}

// RequirePayment extracts payment details from the context and errors if
// there are none.
func RequirePayment(ctx context.Context) (*PaymentDetails, error) {
	d, ok := PaymentFromContext(ctx)
	if !ok {
		return nil, types.NewX402Error(types.ErrMissingPayment, "no payment details in request context")
	}
	return d, nil
}
