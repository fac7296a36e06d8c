package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// X402Version represents the version of the x402 protocol.
type X402Version int

const (
	X402Version1 X402Version = 1
)

// PaymentScheme represents a payment scheme identifier.
type PaymentScheme string

const (
	SchemeExact PaymentScheme = "exact"
)

// TokenStandard represents the standard an asset is issued under.
type TokenStandard string

const (
	TokenStandardERC20  TokenStandard = "erc20"
	TokenStandardSPL    TokenStandard = "spl"
	TokenStandardNative TokenStandard = "native"
)

// PaymentRequirements defines one payment option a resource server accepts.
// Instances are built once from scheme configuration and treated as immutable.
type PaymentRequirements struct {
	// Scheme of the payment protocol to use (e.g., "exact").
	Scheme string `json:"scheme" validate:"required"`

	// Network of the blockchain to send payment on (e.g., "base").
	Network string `json:"network" validate:"required"`

	// Maximum amount required to pay for the resource in atomic units of the
	// asset. Represented as a string because Go does not support uint256.
	MaxAmountRequired string `json:"maxAmountRequired" validate:"required"`

	// URL of the resource to pay for.
	Resource string `json:"resource" validate:"required"`

	// Description of the resource being purchased.
	Description string `json:"description"`

	// MIME type of the resource response (e.g., "application/json").
	MimeType string `json:"mimeType"`

	// Output schema of the resource response, if applicable.
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`

	// Address to which the payment must be sent.
	PayTo string `json:"payTo" validate:"required"`

	// Maximum time in seconds for the payment to complete.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds" validate:"gt=0"`

	// Address or denom of the asset the payment is made in.
	Asset string `json:"asset" validate:"required"`

	// Extra information about payment details specific to the scheme.
	// For the `exact` scheme on EVM this carries the EIP-712 domain
	// `name` and `version` of the asset contract.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Validate checks that the PaymentRequirements contain all required fields
// and that the amount is a non-negative integer string.
func (pr *PaymentRequirements) Validate() error {
	if pr.Scheme == "" {
		return fmt.Errorf("paymentRequirements.scheme is required")
	}

	if pr.Network == "" {
		return fmt.Errorf("paymentRequirements.network is required")
	}

	if pr.MaxAmountRequired == "" {
		return fmt.Errorf("paymentRequirements.maxAmountRequired is required")
	}

	if err := validAmount(pr.MaxAmountRequired); err != nil {
		return fmt.Errorf("paymentRequirements.maxAmountRequired: %w", err)
	}

	if pr.Resource == "" {
		return fmt.Errorf("paymentRequirements.resource is required")
	}

	if pr.PayTo == "" {
		return fmt.Errorf("paymentRequirements.payTo is required")
	}

	if pr.Asset == "" {
		return fmt.Errorf("paymentRequirements.asset is required")
	}

	if pr.MaxTimeoutSeconds <= 0 {
		return fmt.Errorf("paymentRequirements.maxTimeoutSeconds must be greater than 0")
	}

	return nil
}

// validAmount reports whether s is a non-negative integer amount string.
func validAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("not a valid amount: %q", s)
	}

	if d.IsNegative() {
		return fmt.Errorf("amount must not be negative: %q", s)
	}

	if !d.Equal(d.Truncate(0)) {
		return fmt.Errorf("amount must be an integer in atomic units: %q", s)
	}

	return nil
}

// PaymentPayload is the decoded form of the X-PAYMENT request header.
type PaymentPayload struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version"`

	// Scheme the payload was built for (e.g., "exact").
	Scheme string `json:"scheme" validate:"required"`

	// Network the payment is to be made on.
	Network string `json:"network" validate:"required"`

	// Scheme-specific payload object (e.g., a signed EIP-3009 authorization).
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// Validate checks that the PaymentPayload contains all required fields.
func (p *PaymentPayload) Validate() error {
	if p.X402Version != int(X402Version1) {
		return fmt.Errorf("paymentPayload.x402Version %d is not supported", p.X402Version)
	}

	if p.Scheme == "" {
		return fmt.Errorf("paymentPayload.scheme is required")
	}

	if p.Network == "" {
		return fmt.Errorf("paymentPayload.network is required")
	}

	if len(p.Payload) == 0 {
		return fmt.Errorf("paymentPayload.payload is required")
	}

	return nil
}

// X402Response is the body of a payment-required (or payment-rejected)
// response: the protocol version, the payment options the server accepts,
// and an optional processing error message.
type X402Response struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version"`

	// List of payment requirements that the resource server accepts.
	Accepts []PaymentRequirements `json:"accepts"`

	// Message from the resource server indicating any processing error.
	Error string `json:"error,omitempty"`
}

// VerifyRequest is the body POSTed to a facilitator's verify endpoint.
type VerifyRequest struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version"`

	// Decoded payment header from the client.
	PaymentPayload PaymentPayload `json:"paymentPayload"`

	// Payment requirements being verified against.
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// Validate checks that the VerifyRequest contains all required fields.
func (v *VerifyRequest) Validate() error {
	if v.X402Version <= 0 {
		return fmt.Errorf("x402Version must be greater than 0")
	}

	if err := v.PaymentPayload.Validate(); err != nil {
		return err
	}

	return v.PaymentRequirements.Validate()
}

// SettleRequest is the body POSTed to a facilitator's settle endpoint.
// The shape is identical to VerifyRequest; the endpoints differ.
type SettleRequest struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version"`

	// Decoded payment header from the client.
	PaymentPayload PaymentPayload `json:"paymentPayload"`

	// Payment requirements being settled against.
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// Validate checks that the SettleRequest contains all required fields.
func (s *SettleRequest) Validate() error {
	if s.X402Version <= 0 {
		return fmt.Errorf("x402Version must be greater than 0")
	}

	if err := s.PaymentPayload.Validate(); err != nil {
		return err
	}

	return s.PaymentRequirements.Validate()
}

// VerifyResponse is the facilitator's verification result.
type VerifyResponse struct {
	// Indicates whether the payment is valid.
	IsValid bool `json:"isValid"`

	// Provides a reason if the payment is invalid.
	InvalidReason string `json:"invalidReason,omitempty"`

	// Address of the paying account, when the facilitator recovered one.
	Payer string `json:"payer,omitempty"`
}

// SettleResponse is the facilitator's settlement result. The same shape,
// base64-encoded, is returned to the buyer in the X-PAYMENT-RESPONSE header.
type SettleResponse struct {
	// Indicates whether settlement succeeded.
	Success bool `json:"success"`

	// Provides a reason if settlement failed.
	ErrorReason string `json:"errorReason,omitempty"`

	// Transaction hash or signature of the settlement, network specific.
	Transaction string `json:"transaction"`

	// Network the settlement happened on.
	Network string `json:"network"`

	// Address of the paying account.
	Payer string `json:"payer,omitempty"`
}

// SupportedKind describes one (version, scheme, network) combination a
// facilitator can process.
type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// SupportedResponse is the body of a facilitator's supported endpoint.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// X402Error is the error type returned by constructors and parsers.
type X402Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *X402Error) Error() string {
	return e.Message
}

// NewX402Error builds an X402Error from a code and a formatted message.
func NewX402Error(code string, format string, args ...interface{}) *X402Error {
	return &X402Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common error codes
const (
	ErrMissingPayment        = "MISSING_PAYMENT"
	ErrInvalidPayload        = "INVALID_PAYLOAD"
	ErrNoMatchingRequirement = "NO_MATCHING_REQUIREMENT"
	ErrValidationFailed      = "VALIDATION_FAILED"
	ErrVerificationFailed    = "VERIFICATION_FAILED"
	ErrSettlementFailed      = "SETTLEMENT_FAILED"
	ErrInvalidRequirements   = "INVALID_REQUIREMENTS"
	ErrConfigError           = "CONFIG_ERROR"
)
