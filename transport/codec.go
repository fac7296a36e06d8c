// Package transport implements the base64 JSON codec for the x402 HTTP
// headers: X-PAYMENT on requests and X-PAYMENT-RESPONSE on responses.
package transport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vitwit/x402-paywall/types"
	"github.com/vitwit/x402-paywall/utils"
)

// Header names used by the protocol.
const (
	HeaderPayment         = "X-PAYMENT"
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// DecodePaymentHeader decodes an X-PAYMENT header value into a
// PaymentPayload. Every failure is a *DecodeError; malformed input of any
// kind is rejected, never a panic.
func DecodePaymentHeader(raw string) (*types.PaymentPayload, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &DecodeError{Kind: DecodeInvalidBase64, Err: err}
	}

	var p types.PaymentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &DecodeError{Kind: DecodeInvalidJSON, Err: err}
	}

	if p.Scheme == "" || p.Network == "" || len(p.Payload) == 0 {
		return nil, &DecodeError{Kind: DecodeInvalidJSON, Err: fmt.Errorf("payment payload is missing required fields")}
	}

	if p.X402Version != int(types.X402Version1) {
		return nil, &DecodeError{Kind: DecodeUnknownScheme, Err: fmt.Errorf("x402Version %d is not supported", p.X402Version)}
	}

	return &p, nil
}

// EncodePaymentHeader encodes a PaymentPayload into an X-PAYMENT header
// value. Inverse of DecodePaymentHeader.
func EncodePaymentHeader(p *types.PaymentPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payment header: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeSettleResponse encodes a settlement result into an
// X-PAYMENT-RESPONSE header value. Encoding then decoding yields the same
// value for every valid input.
func EncodeSettleResponse(r *types.SettleResponse) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode settle response: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeSettleResponse decodes an X-PAYMENT-RESPONSE header value.
func DecodeSettleResponse(raw string) (*types.SettleResponse, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &DecodeError{Kind: DecodeInvalidBase64, Err: err}
	}

	var r types.SettleResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &DecodeError{Kind: DecodeInvalidJSON, Err: err}
	}

	return &r, nil
}

// DecodePaymentRequired parses a 402 response body, validating every entry
// in accepts. Intended for buyers and tests reading requirement lists.
func DecodePaymentRequired(body []byte) (*types.X402Response, error) {
	var env struct {
		X402Version int               `json:"x402Version"`
		Accepts     []json.RawMessage `json:"accepts"`
		Error       string            `json:"error"`
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Kind: DecodeInvalidJSON, Err: err}
	}

	out := &types.X402Response{
		X402Version: env.X402Version,
		Accepts:     make([]types.PaymentRequirements, 0, len(env.Accepts)),
		Error:       env.Error,
	}

	for i, raw := range env.Accepts {
		req, err := utils.ParsePaymentRequirements(raw)
		if err != nil {
			return nil, &DecodeError{Kind: DecodeInvalidJSON, Err: fmt.Errorf("accepts[%d]: %w", i, err)}
		}
		out.Accepts = append(out.Accepts, *req)
	}

	return out, nil
}
