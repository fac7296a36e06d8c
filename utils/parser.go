package utils

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vitwit/x402-paywall/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ParsePaymentRequirements parses and validates PaymentRequirements from JSON.
func ParsePaymentRequirements(data []byte) (*types.PaymentRequirements, error) {
	var req types.PaymentRequirements

	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: fmt.Sprintf("failed to parse payment requirements: %v", err),
		}
	}

	// Validate using struct tags
	if err := validate.Struct(&req); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	if err := req.Validate(); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: err.Error(),
		}
	}

	return &req, nil
}

// ParsePaymentPayload parses and validates a PaymentPayload from JSON.
func ParsePaymentPayload(data []byte) (*types.PaymentPayload, error) {
	var p types.PaymentPayload

	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidPayload,
			Message: fmt.Sprintf("failed to parse payment payload: %v", err),
		}
	}

	if err := validate.Struct(&p); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidPayload,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	if err := p.Validate(); err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrInvalidPayload,
			Message: err.Error(),
		}
	}

	return &p, nil
}

// SerializePaymentRequirements converts PaymentRequirements to JSON.
func SerializePaymentRequirements(req *types.PaymentRequirements) ([]byte, error) {
	return json.Marshal(req)
}
