package schemes

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/vitwit/x402-paywall/types"
)

// ExactSVMPayload is the scheme payload for exact payments on Solana
// networks: a base64-encoded partially signed transaction.
type ExactSVMPayload struct {
	Transaction string `json:"transaction"`
}

// ExactSVMConfig configures an exact-amount payment option on a Solana
// network.
type ExactSVMConfig struct {
	Network types.Network
	Asset   Asset

	// Base58 public key payments must be sent to.
	PayTo string

	// Price in atomic units of the asset.
	Amount uint64

	Resource *types.Resource

	// Zero means DefaultMaxTimeoutSeconds.
	MaxTimeoutSeconds int

	// Optional fee payer the facilitator sponsors transactions with.
	// Published to buyers through requirement extra.
	FeePayer string
}

// ExactSVM is the exact-amount capability for Solana networks.
type ExactSVM struct {
	cfg ExactSVMConfig
	req types.PaymentRequirements
}

// NewExactSVM validates the configuration and freezes its wire projection.
func NewExactSVM(cfg ExactSVMConfig) (*ExactSVM, error) {
	if !cfg.Network.IsSolana() {
		return nil, types.NewX402Error(types.ErrConfigError, "network %s is not a Solana network", cfg.Network)
	}

	if _, err := solana.PublicKeyFromBase58(cfg.PayTo); err != nil {
		return nil, types.NewX402Error(types.ErrConfigError, "payTo %q is not a valid Solana address: %v", cfg.PayTo, err)
	}

	if _, err := solana.PublicKeyFromBase58(cfg.Asset.Address); err != nil {
		return nil, types.NewX402Error(types.ErrConfigError, "asset %q is not a valid Solana mint: %v", cfg.Asset.Address, err)
	}

	if cfg.FeePayer != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.FeePayer); err != nil {
			return nil, types.NewX402Error(types.ErrConfigError, "feePayer %q is not a valid Solana address: %v", cfg.FeePayer, err)
		}
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

	var extra map[string]interface{}
	if cfg.FeePayer != "" {
		extra = map[string]interface{}{"feePayer": cfg.FeePayer}
	}

	return &ExactSVM{
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

func (s *ExactSVM) Describe() types.PaymentRequirements {
	return s.req
}

func (s *ExactSVM) Matches(p *types.PaymentPayload) bool {
	return p.Scheme == string(types.SchemeExact) && p.Network == s.cfg.Network.String()
}

func (s *ExactSVM) ValidatePayload(p *types.PaymentPayload, req *types.PaymentRequirements) error {
	if p.Scheme != string(types.SchemeExact) {
		return invalidf(ReasonUnsupportedScheme, "scheme %q", p.Scheme)
	}

	if p.Network != s.cfg.Network.String() {
		return invalidf(ReasonInvalidNetwork, "network %q", p.Network)
	}

	var body ExactSVMPayload
	if err := json.Unmarshal(p.Payload, &body); err != nil {
		return &ValidationError{Reason: ReasonInvalidPayloadFormat, Err: err}
	}

	if body.Transaction == "" {
		return invalidf(ReasonInvalidExactSvmTransaction, "transaction is required")
	}

	raw, err := base64.StdEncoding.DecodeString(body.Transaction)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidExactSvmTransaction, Err: err}
	}

	tx, err := solana.TransactionFromDecoder(binary.NewBinDecoder(raw))
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidExactSvmTransaction, Err: err}
	}

	if len(tx.Message.Instructions) == 0 {
		return invalidf(ReasonInvalidInstructionsLength, "transaction has no instructions")
	}

	return nil
}
