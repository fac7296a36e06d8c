package schemes

import "fmt"

// Invalid-payment reason codes. Snake case to match the wire vocabulary
// facilitators use in invalidReason fields.
const (
	// -----------------------------
	// SCHEME / NETWORK
	// -----------------------------
	ReasonUnsupportedScheme = "unsupported_scheme"
	ReasonInvalidNetwork    = "invalid_network"

	// -----------------------------
	// GENERIC PAYLOAD
	// -----------------------------
	ReasonInvalidPayloadFormat = "invalid_payload_format"
	ReasonInvalidSignature     = "invalid_signature"

	// -----------------------------
	// EVM AUTHORIZATION
	// -----------------------------
	ReasonInvalidAuthorization = "invalid_authorization"
	ReasonInvalidNonce         = "invalid_nonce"
	ReasonRecipientMismatch    = "recipient_mismatch"
	ReasonAmountInsufficient   = "amount_insufficient"

	// -----------------------------
	// SVM TRANSACTION
	// -----------------------------
	ReasonInvalidExactSvmTransaction = "invalid_exact_svm_payload_transaction"
	ReasonInvalidInstructionsLength  = "invalid_exact_svm_payload_transaction_instructions_length"

	// -----------------------------
	// COSMOS PAYMENT
	// -----------------------------
	ReasonDenomMismatch      = "denom_mismatch"
	ReasonInvalidTransaction = "invalid_transaction"
)

// ValidationError is returned by Scheme.ValidatePayload. Reason carries the
// wire reason code; Err the underlying cause, when there is one.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalidf(reason, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: reason, Err: fmt.Errorf(format, args...)}
}
