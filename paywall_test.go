package paywall

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-paywall/schemes"
	"github.com/vitwit/x402-paywall/transport"
	"github.com/vitwit/x402-paywall/types"
)

const (
	payToAddr = "0xABC4567890abcdef1234567890abcdef12345678"
	payerAddr = "0x1234567890abcdef1234567890abcdef12345678"
)

// mockFacilitator counts calls and delegates to per-test func fields. The
// zero behavior approves everything: verify reports valid with payerAddr,
// settle succeeds with transaction 0xdeadbeef, supported lists exact/base.
type mockFacilitator struct {
	mu             sync.Mutex
	verifyCalls    int
	settleCalls    int
	supportedCalls int

	verifyFunc    func(ctx context.Context, req *types.VerifyRequest) (*types.VerifyResponse, error)
	settleFunc    func(ctx context.Context, req *types.SettleRequest) (*types.SettleResponse, error)
	supportedFunc func(ctx context.Context) (*types.SupportedResponse, error)
}

func (m *mockFacilitator) Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerifyResponse, error) {
	m.mu.Lock()
	m.verifyCalls++
	m.mu.Unlock()

	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, req)
	}
	return &types.VerifyResponse{IsValid: true, Payer: payerAddr}, nil
}

func (m *mockFacilitator) Settle(ctx context.Context, req *types.SettleRequest) (*types.SettleResponse, error) {
	m.mu.Lock()
	m.settleCalls++
	m.mu.Unlock()

	if m.settleFunc != nil {
		return m.settleFunc(ctx, req)
	}
	return &types.SettleResponse{
		Success:     true,
		Transaction: "0xdeadbeef",
		Network:     req.PaymentRequirements.Network,
		Payer:       payerAddr,
	}, nil
}

func (m *mockFacilitator) Supported(ctx context.Context) (*types.SupportedResponse, error) {
	m.mu.Lock()
	m.supportedCalls++
	m.mu.Unlock()

	if m.supportedFunc != nil {
		return m.supportedFunc(ctx)
	}
	return &types.SupportedResponse{
		Kinds: []types.SupportedKind{{X402Version: 1, Scheme: "exact", Network: "base"}},
	}, nil
}

func (m *mockFacilitator) calls() (verify, settle int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyCalls, m.settleCalls
}

// recordingMetrics captures recorded events for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	counters []string
	latency  []string
}

func (r *recordingMetrics) IncCounter(name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, name)
}

func (r *recordingMetrics) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latency = append(r.latency, name)
}

func baseScheme(t *testing.T) schemes.Scheme {
	t.Helper()

	res, err := types.NewResource("https://api.example.com/weather", "Weather data", "application/json")
	require.NoError(t, err)

	s, err := schemes.NewExactEVM(schemes.ExactEVMConfig{
		Network:  types.NetworkBase,
		Asset:    schemes.USDCBase,
		PayTo:    payToAddr,
		Amount:   1000,
		Resource: res,
	})
	require.NoError(t, err)
	return s
}

func ethereumScheme(t *testing.T) schemes.Scheme {
	t.Helper()

	res, err := types.NewResource("https://api.example.com/weather", "Weather data", "application/json")
	require.NoError(t, err)

	s, err := schemes.NewExactEVM(schemes.ExactEVMConfig{
		Network:  types.NetworkEthereum,
		Asset:    schemes.USDCEthereum,
		PayTo:    payToAddr,
		Amount:   2500,
		Resource: res,
	})
	require.NoError(t, err)
	return s
}

func newTestPaywall(t *testing.T, opts ...Option) (*Paywall, *mockFacilitator) {
	t.Helper()

	f := &mockFacilitator{}
	pw, err := New(f, []schemes.Scheme{baseScheme(t)}, opts...)
	require.NoError(t, err)
	return pw, f
}

// paymentHeader encodes a well-formed exact/base payment for amount 1000.
func paymentHeader(t *testing.T) string {
	t.Helper()
	return paymentHeaderFor(t, "1000")
}

func paymentHeaderFor(t *testing.T, value string) string {
	t.Helper()

	body, err := json.Marshal(schemes.ExactEVMPayload{
		Signature: "0x" + strings.Repeat("ab", 65),
		Authorization: schemes.ExactEVMAuthorization{
			From:        payerAddr,
			To:          payToAddr,
			Value:       value,
			ValidAfter:  "0",
			ValidBefore: "99999999999",
			Nonce:       "0x" + strings.Repeat("11", 32),
		},
	})
	require.NoError(t, err)

	header, err := transport.EncodePaymentHeader(&types.PaymentPayload{
		X402Version: 1,
		Scheme:      "exact",
		Network:     "base",
		Payload:     body,
	})
	require.NoError(t, err)
	return header
}

func TestNewRequiresFacilitator(t *testing.T) {
	_, err := New(nil, []schemes.Scheme{baseScheme(t)})
	require.Error(t, err)

	var xerr *types.X402Error
	require.ErrorAs(t, err, &xerr)
	require.Equal(t, types.ErrConfigError, xerr.Code)
}

func TestNewRequiresSchemes(t *testing.T) {
	_, err := New(&mockFacilitator{}, nil)
	require.Error(t, err)

	var xerr *types.X402Error
	require.ErrorAs(t, err, &xerr)
	require.Equal(t, types.ErrConfigError, xerr.Code)
}

func TestRequirementsPreserveSchemeOrder(t *testing.T) {
	pw, err := New(&mockFacilitator{}, []schemes.Scheme{baseScheme(t), ethereumScheme(t)})
	require.NoError(t, err)

	reqs := pw.Requirements()
	require.Len(t, reqs, 2)
	require.Equal(t, "base", reqs[0].Network)
	require.Equal(t, "1000", reqs[0].MaxAmountRequired)
	require.Equal(t, "ethereum", reqs[1].Network)
	require.Equal(t, "2500", reqs[1].MaxAmountRequired)
}

func TestUpdateAccepts(t *testing.T) {
	f := &mockFacilitator{
		supportedFunc: func(ctx context.Context) (*types.SupportedResponse, error) {
			return &types.SupportedResponse{
				Kinds: []types.SupportedKind{{
					X402Version: 1,
					Scheme:      "exact",
					Network:     "base",
					Extra:       map[string]interface{}{"version": "3"},
				}},
			}, nil
		},
	}

	pw, err := New(f, []schemes.Scheme{baseScheme(t), ethereumScheme(t)})
	require.NoError(t, err)

	require.NoError(t, pw.UpdateAccepts(context.Background()))
	require.Equal(t, 1, f.supportedCalls)

	reqs := pw.Requirements()
	require.Len(t, reqs, 1)
	require.Equal(t, "base", reqs[0].Network)

	// The facilitator's extra overrides the configured EIP-712 version.
	require.Equal(t, "3", reqs[0].Extra["version"])
	require.Equal(t, "USD Coin", reqs[0].Extra["name"])
}

func TestUpdateAcceptsNoOverlap(t *testing.T) {
	f := &mockFacilitator{
		supportedFunc: func(ctx context.Context) (*types.SupportedResponse, error) {
			return &types.SupportedResponse{
				Kinds: []types.SupportedKind{{X402Version: 1, Scheme: "exact", Network: "avalanche"}},
			}, nil
		},
	}

	pw, err := New(f, []schemes.Scheme{baseScheme(t)})
	require.NoError(t, err)

	err = pw.UpdateAccepts(context.Background())
	require.Error(t, err)

	var xerr *types.X402Error
	require.ErrorAs(t, err, &xerr)
	require.Equal(t, types.ErrConfigError, xerr.Code)

	// The previous requirements stay in place rather than going empty.
	require.Len(t, pw.Requirements(), 1)
}

func TestUpdateAcceptsFacilitatorError(t *testing.T) {
	f := &mockFacilitator{
		supportedFunc: func(ctx context.Context) (*types.SupportedResponse, error) {
			return nil, context.DeadlineExceeded
		},
	}

	pw, err := New(f, []schemes.Scheme{baseScheme(t)})
	require.NoError(t, err)

	err = pw.UpdateAccepts(context.Background())
	require.ErrorContains(t, err, "failed to fetch supported payment kinds")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, pw.Requirements(), 1)
}

func TestGetVersion(t *testing.T) {
	info := GetVersion()
	require.Equal(t, Version, info["library_version"])
	require.Equal(t, ProtocolVersion, info["protocol_version"])
	require.NotEmpty(t, info["go_version"])
	require.Contains(t, info["supported_schemes"], "exact")
}
