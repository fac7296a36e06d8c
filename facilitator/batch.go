package facilitator

import (
	"context"

	"github.com/vitwit/x402-paywall/types"
)

// BatchVerify verifies multiple payments concurrently. Per-item failures are
// folded into the result objects; the batch itself fails only when the
// context is done.
func (c *Client) BatchVerify(ctx context.Context, requests []*types.VerifyRequest) ([]*types.VerifyResponse, error) {
	results := make([]*types.VerifyResponse, len(requests))

	type verifyResult struct {
		index  int
		result *types.VerifyResponse
		err    error
	}

	resultChan := make(chan verifyResult, len(requests))

	for i, request := range requests {
		go func(index int, req *types.VerifyRequest) {
			result, err := c.Verify(ctx, req)
			resultChan <- verifyResult{
				index:  index,
				result: result,
				err:    err,
			}
		}(i, request)
	}

	for i := 0; i < len(requests); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-resultChan:
			if res.err != nil {
				results[res.index] = &types.VerifyResponse{
					IsValid:       false,
					InvalidReason: res.err.Error(),
				}
				continue
			}
			results[res.index] = res.result
		}
	}

	return results, nil
}

// BatchSettle settles multiple payments concurrently. Per-item failures are
// folded into the result objects; the batch itself fails only when the
// context is done.
func (c *Client) BatchSettle(ctx context.Context, requests []*types.SettleRequest) ([]*types.SettleResponse, error) {
	results := make([]*types.SettleResponse, len(requests))

	type settleResult struct {
		index  int
		result *types.SettleResponse
		err    error
	}

	resultChan := make(chan settleResult, len(requests))

	for i, request := range requests {
		go func(index int, req *types.SettleRequest) {
			result, err := c.Settle(ctx, req)
			resultChan <- settleResult{
				index:  index,
				result: result,
				err:    err,
			}
		}(i, request)
	}

	for i := 0; i < len(requests); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-resultChan:
			if res.err != nil {
				results[res.index] = &types.SettleResponse{
					Success:     false,
					ErrorReason: res.err.Error(),
				}
				continue
			}
			results[res.index] = res.result
		}
	}

	return results, nil
}
