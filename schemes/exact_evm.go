package schemes

import (
	"encoding/json"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vitwit/x402-paywall/types"
	"github.com/vitwit/x402-paywall/utils"
)

// ExactEVMPayload is the scheme payload for exact payments on EVM networks:
// a signed EIP-3009 transferWithAuthorization.
type ExactEVMPayload struct {
	// The 65-byte ECDSA signature (r, s, v) as 0x-prefixed hex.
	Signature string `json:"signature"`

	Authorization ExactEVMAuthorization `json:"authorization"`
}

// ExactEVMAuthorization mirrors the EIP-3009 authorization message.
type ExactEVMAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`       // uint256
	ValidAfter  string `json:"validAfter"`  // uint256 timestamp
	ValidBefore string `json:"validBefore"` // uint256 timestamp
	Nonce       string `json:"nonce"`       // bytes32
}

// ExactEVMConfig configures an exact-amount payment option on an EVM network.
type ExactEVMConfig struct {
	Network types.Network
	Asset   Asset

	// Address payments must be sent to.
	PayTo string

	// Price in atomic units of the asset.
	Amount uint64

	Resource *types.Resource

	// Zero means DefaultMaxTimeoutSeconds.
	MaxTimeoutSeconds int

	// Overrides the default extra (the asset's EIP-712 domain) when non-nil.
	Extra map[string]interface{}
}

// ExactEVM is the exact-amount capability for EVM networks.
type ExactEVM struct {
	cfg ExactEVMConfig
	req types.PaymentRequirements
}

// NewExactEVM validates the configuration and freezes its wire projection.
func NewExactEVM(cfg ExactEVMConfig) (*ExactEVM, error) {
	if !cfg.Network.IsEVM() {
		return nil, types.NewX402Error(types.ErrConfigError, "network %s is not an EVM network", cfg.Network)
	}

	if !common.IsHexAddress(cfg.PayTo) {
		return nil, types.NewX402Error(types.ErrConfigError, "payTo %q is not a valid EVM address", cfg.PayTo)
	}

	if !common.IsHexAddress(cfg.Asset.Address) {
		return nil, types.NewX402Error(types.ErrConfigError, "asset %q is not a valid EVM address", cfg.Asset.Address)
	}

	if cfg.Resource == nil {
		return nil, types.NewX402Error(types.ErrConfigError, "resource is required")
	}

	if cfg.MaxTimeoutSeconds == 0 {
		cfg.MaxTimeoutSeconds = DefaultMaxTimeoutSeconds
	}

	if cfg.MaxTimeoutSeconds < 0 {
		return nil, types.NewX402Error(types.ErrConfigError, "maxTimeoutSeconds must be greater than 0")
	}

	extra := cfg.Extra
	if extra == nil && cfg.Asset.EIP712 != (EIP712Domain{}) {
		extra = map[string]interface{}{
			"name":    cfg.Asset.EIP712.Name,
			"version": cfg.Asset.EIP712.Version,
		}
	}

	return &ExactEVM{
		cfg: cfg,
		req: types.PaymentRequirements{
			Scheme:            string(types.SchemeExact),
			Network:           cfg.Network.String(),
			MaxAmountRequired: strconv.FormatUint(cfg.Amount, 10),
			Resource:          cfg.Resource.URL,
			Description:       cfg.Resource.Description,
			MimeType:          cfg.Resource.MimeType,
			OutputSchema:      cfg.Resource.OutputSchema,
			PayTo:             cfg.PayTo,
			MaxTimeoutSeconds: cfg.MaxTimeoutSeconds,
			Asset:             cfg.Asset.Address,
			Extra:             extra,
		},
	}, nil
}

func (s *ExactEVM) Describe() types.PaymentRequirements {
	return s.req
}

func (s *ExactEVM) Matches(p *types.PaymentPayload) bool {
	return p.Scheme == string(types.SchemeExact) && p.Network == s.cfg.Network.String()
}

func (s *ExactEVM) ValidatePayload(p *types.PaymentPayload, req *types.PaymentRequirements) error {
	if p.Scheme != string(types.SchemeExact) {
		return invalidf(ReasonUnsupportedScheme, "scheme %q", p.Scheme)
	}

	if p.Network != s.cfg.Network.String() {
		return invalidf(ReasonInvalidNetwork, "network %q", p.Network)
	}

	var body ExactEVMPayload
	if err := json.Unmarshal(p.Payload, &body); err != nil {
		return &ValidationError{Reason: ReasonInvalidPayloadFormat, Err: err}
	}

	sig, err := hexutil.Decode(body.Signature)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidSignature, Err: err}
	}

	if len(sig) < 65 {
		return invalidf(ReasonInvalidSignature, "signature is %d bytes, need at least 65", len(sig))
	}

	auth := body.Authorization
	if !common.IsHexAddress(auth.From) {
		return invalidf(ReasonInvalidAuthorization, "from %q is not a valid address", auth.From)
	}

	if !common.IsHexAddress(auth.To) {
		return invalidf(ReasonInvalidAuthorization, "to %q is not a valid address", auth.To)
	}

	if common.HexToAddress(auth.To) != common.HexToAddress(req.PayTo) {
		return invalidf(ReasonRecipientMismatch, "authorization pays %s, requirement pays %s", auth.To, req.PayTo)
	}

	covers, err := utils.AmountCovers(auth.Value, req.MaxAmountRequired)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidAuthorization, Err: err}
	}

	if !covers {
		return invalidf(ReasonAmountInsufficient, "value %s does not cover %s", auth.Value, req.MaxAmountRequired)
	}

	if err := utils.ValidateAtomicAmount(auth.ValidAfter); err != nil {
		return &ValidationError{Reason: ReasonInvalidAuthorization, Err: err}
	}

	if err := utils.ValidateAtomicAmount(auth.ValidBefore); err != nil {
		return &ValidationError{Reason: ReasonInvalidAuthorization, Err: err}
	}

	nonce, err := hexutil.Decode(auth.Nonce)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidNonce, Err: err}
	}

	if len(nonce) != 32 {
		return invalidf(ReasonInvalidNonce, "nonce is %d bytes, need 32", len(nonce))
	}

	return nil
}
