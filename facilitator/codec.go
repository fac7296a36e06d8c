package facilitator

import (
	"encoding/json"
	"fmt"

	"github.com/vitwit/x402-paywall/types"
)

// BodyCodec converts between the wire bodies a facilitator speaks and the
// canonical request/response types. Facilitators that extend the canonical
// JSON contract get a custom codec per client instance; the transport loop
// never changes.
type BodyCodec interface {
	VerifyRequestBody(req *types.VerifyRequest) ([]byte, error)
	ParseVerifyResponse(data []byte) (*types.VerifyResponse, error)
	SettleRequestBody(req *types.SettleRequest) ([]byte, error)
	ParseSettleResponse(data []byte) (*types.SettleResponse, error)
}

// DefaultCodec speaks the canonical facilitator JSON contract.
type DefaultCodec struct{}

func (DefaultCodec) VerifyRequestBody(req *types.VerifyRequest) ([]byte, error) {
	return json.Marshal(req)
}

func (DefaultCodec) ParseVerifyResponse(data []byte) (*types.VerifyResponse, error) {
	var r types.VerifyResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse verify response: %w", err)
	}
	return &r, nil
}

func (DefaultCodec) SettleRequestBody(req *types.SettleRequest) ([]byte, error) {
	return json.Marshal(req)
}

func (DefaultCodec) ParseSettleResponse(data []byte) (*types.SettleResponse, error) {
	var r types.SettleResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse settle response: %w", err)
	}
	return &r, nil
}
