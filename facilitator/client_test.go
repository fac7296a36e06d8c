package facilitator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-paywall/types"
)

func verifyRequest(network string) *types.VerifyRequest {
	return &types.VerifyRequest{
		X402Version: 1,
		PaymentPayload: types.PaymentPayload{
			X402Version: 1,
			Scheme:      "exact",
			Network:     network,
			Payload:     json.RawMessage(`{}`),
		},
		PaymentRequirements: types.PaymentRequirements{
			Scheme:            "exact",
			Network:           network,
			MaxAmountRequired: "1000",
			Resource:          "https://api.example.com/weather",
			PayTo:             "0x3CB9B3bBfde8501f411bB69Ad3DC07908ED0dE20",
			MaxTimeoutSeconds: 60,
			Asset:             "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
	}
}

func settleRequest(network string) *types.SettleRequest {
	vr := verifyRequest(network)
	return &types.SettleRequest{
		X402Version:         vr.X402Version,
		PaymentPayload:      vr.PaymentPayload,
		PaymentRequirements: vr.PaymentRequirements,
	}
}

func TestNewClientConfigErrors(t *testing.T) {
	for _, raw := range []string{"/relative/path", "not a url at all", "://nope"} {
		_, err := NewClient(raw)
		require.Error(t, err, "base url %q", raw)

		var xerr *types.X402Error
		require.ErrorAs(t, err, &xerr)
		require.Equal(t, types.ErrConfigError, xerr.Code)
	}
}

func TestClientEndpointResolution(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"isValid": true}`)
	}))
	defer srv.Close()

	cases := []struct {
		name string
		base string
		want string
	}{
		{"bare host", srv.URL, "/verify"},
		{"trailing slash keeps the prefix", srv.URL + "/api/", "/api/verify"},
		{"no trailing slash replaces the last segment", srv.URL + "/api", "/verify"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewClient(tc.base)
			require.NoError(t, err)

			_, err = c.Verify(context.Background(), verifyRequest("base"))
			require.NoError(t, err)
			require.Equal(t, tc.want, gotPath)
		})
	}
}

func TestClientVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/verify", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var body types.VerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 1, body.X402Version)
		require.Equal(t, "base", body.PaymentRequirements.Network)

		fmt.Fprint(w, `{"isValid": true, "payer": "0x1234567890abcdef1234567890abcdef12345678"}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHeader("Authorization", "Bearer token-123"))
	require.NoError(t, err)

	resp, err := c.Verify(context.Background(), verifyRequest("base"))
	require.NoError(t, err)
	require.True(t, resp.IsValid)
	require.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", resp.Payer)
}

func TestClientSettle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/settle", r.URL.Path)
		fmt.Fprint(w, `{"success": true, "transaction": "0xdeadbeef", "network": "base"}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Settle(context.Background(), settleRequest("base"))
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "0xdeadbeef", resp.Transaction)
}

func TestClientErrorPreservesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Settle(context.Background(), settleRequest("base"))
	require.Error(t, err)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, "settle", ferr.Op)
	require.Equal(t, http.StatusServiceUnavailable, ferr.StatusCode)
	require.Equal(t, "upstream down\n", ferr.Body)
}

func TestClientSupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/supported", r.URL.Path)
		fmt.Fprint(w, `{"kinds": [
			{"x402Version": 1, "scheme": "exact", "network": "base"},
			{"x402Version": 1, "scheme": "exact", "network": "solana", "extra": {"feePayer": "abc"}}
		]}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Supported(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Kinds, 2)
	require.Equal(t, "solana", resp.Kinds[1].Network)
	require.Equal(t, "abc", resp.Kinds[1].Extra["feePayer"])
}

// envelopeCodec wraps request bodies and unwraps response bodies, standing in
// for a facilitator that extends the canonical JSON contract.
type envelopeCodec struct{}

func (envelopeCodec) VerifyRequestBody(req *types.VerifyRequest) ([]byte, error) {
	return json.Marshal(map[string]interface{}{"envelope": req})
}

func (envelopeCodec) ParseVerifyResponse(data []byte) (*types.VerifyResponse, error) {
	var wrapper struct {
		Result types.VerifyResponse `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Result, nil
}

func (envelopeCodec) SettleRequestBody(req *types.SettleRequest) ([]byte, error) {
	return json.Marshal(map[string]interface{}{"envelope": req})
}

func (envelopeCodec) ParseSettleResponse(data []byte) (*types.SettleResponse, error) {
	var wrapper struct {
		Result types.SettleResponse `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Result, nil
}

func TestClientCustomBodyCodec(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "envelope")

		fmt.Fprint(w, `{"result": {"isValid": true, "payer": "0xabc"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithBodyCodec(envelopeCodec{}))
	require.NoError(t, err)

	resp, err := c.Verify(context.Background(), verifyRequest("base"))
	require.NoError(t, err)
	require.True(t, resp.IsValid)
	require.Equal(t, "0xabc", resp.Payer)
}

func TestBatchVerify(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()

		var body types.VerifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.PaymentRequirements.Network == "broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		// Echo the network through payer so the test can check ordering.
		fmt.Fprintf(w, `{"isValid": true, "payer": %q}`, body.PaymentRequirements.Network)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	results, err := c.BatchVerify(context.Background(), []*types.VerifyRequest{
		verifyRequest("base"),
		verifyRequest("broken"),
		verifyRequest("polygon"),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	mu.Lock()
	require.Equal(t, 3, calls)
	mu.Unlock()

	require.True(t, results[0].IsValid)
	require.Equal(t, "base", results[0].Payer)

	// The failed item is folded into its slot, not returned as a batch error.
	require.False(t, results[1].IsValid)
	require.Contains(t, results[1].InvalidReason, "unexpected status 500")

	require.True(t, results[2].IsValid)
	require.Equal(t, "polygon", results[2].Payer)
}

func TestBatchSettle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body types.SettleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprintf(w, `{"success": true, "transaction": "0xdeadbeef", "network": %q}`, body.PaymentRequirements.Network)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	results, err := c.BatchSettle(context.Background(), []*types.SettleRequest{
		settleRequest("base"),
		settleRequest("polygon"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "base", results[0].Network)
	require.Equal(t, "polygon", results[1].Network)
}
