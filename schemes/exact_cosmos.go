package schemes

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cosmos/cosmos-sdk/types/bech32"

	"github.com/vitwit/x402-paywall/types"
	"github.com/vitwit/x402-paywall/utils"
)

// DefaultBech32Prefix is the account prefix assumed when a Cosmos config
// leaves it unset.
const DefaultBech32Prefix = "cosmos"

// ExactCosmosPayload is the scheme payload for exact payments on Cosmos
// networks: a signed bank send wrapped with its metadata.
type ExactCosmosPayload struct {
	Version   int               `json:"version"`
	ChainID   string            `json:"chainId"`
	Payment   CosmosPaymentData `json:"payment"`
	Signature string            `json:"signature"`
}

// CosmosPaymentData carries the transfer the transaction performs.
type CosmosPaymentData struct {
	Amount    string `json:"amount"`
	Denom     string `json:"denom"`
	Payer     string `json:"payer"`
	Recipient string `json:"recipient"`
	TxBase64  string `json:"txBase64"`
}

// ExactCosmosConfig configures an exact-amount payment option on a Cosmos
// network.
type ExactCosmosConfig struct {
	Network types.Network

	// Denom of the accepted coin (e.g. "uatom", "uusdc").
	Denom string

	// Account prefix addresses must carry. Empty means DefaultBech32Prefix.
	Bech32Prefix string

	// Bech32 address payments must be sent to.
	PayTo string

	// Price in atomic units of the denom.
	Amount uint64

	Resource *types.Resource

	// Zero means DefaultMaxTimeoutSeconds.
	MaxTimeoutSeconds int
}

// ExactCosmos is the exact-amount capability for Cosmos networks.
type ExactCosmos struct {
	cfg ExactCosmosConfig
	req types.PaymentRequirements
}

// NewExactCosmos validates the configuration and freezes its wire projection.
func NewExactCosmos(cfg ExactCosmosConfig) (*ExactCosmos, error) {
	if !cfg.Network.IsCosmos() {
		return nil, types.NewX402Error(types.ErrConfigError, "network %s is not a Cosmos network", cfg.Network)
	}

	if cfg.Denom == "" {
		return nil, types.NewX402Error(types.ErrConfigError, "denom is required")
	}

	if cfg.Bech32Prefix == "" {
		cfg.Bech32Prefix = DefaultBech32Prefix
	}

	if err := validBech32(cfg.PayTo, cfg.Bech32Prefix); err != nil {
		return nil, types.NewX402Error(types.ErrConfigError, "payTo: %v", err)
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

	return &ExactCosmos{
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
			Asset:             cfg.Denom,
		},
	}, nil
}

func (s *ExactCosmos) Describe() types.PaymentRequirements {
	return s.req
}

func (s *ExactCosmos) Matches(p *types.PaymentPayload) bool {
	return p.Scheme == string(types.SchemeExact) && p.Network == s.cfg.Network.String()
}

func (s *ExactCosmos) ValidatePayload(p *types.PaymentPayload, req *types.PaymentRequirements) error {
	if p.Scheme != string(types.SchemeExact) {
		return invalidf(ReasonUnsupportedScheme, "scheme %q", p.Scheme)
	}

	if p.Network != s.cfg.Network.String() {
		return invalidf(ReasonInvalidNetwork, "network %q", p.Network)
	}

	var body ExactCosmosPayload
	if err := json.Unmarshal(p.Payload, &body); err != nil {
		return &ValidationError{Reason: ReasonInvalidPayloadFormat, Err: err}
	}

	pay := body.Payment
	if err := validBech32(pay.Payer, s.cfg.Bech32Prefix); err != nil {
		return &ValidationError{Reason: ReasonInvalidAuthorization, Err: err}
	}

	if err := validBech32(pay.Recipient, s.cfg.Bech32Prefix); err != nil {
		return &ValidationError{Reason: ReasonInvalidAuthorization, Err: err}
	}

	if pay.Recipient != req.PayTo {
		return invalidf(ReasonRecipientMismatch, "payment pays %s, requirement pays %s", pay.Recipient, req.PayTo)
	}

	if pay.Denom != req.Asset {
		return invalidf(ReasonDenomMismatch, "payment denom %q, requirement denom %q", pay.Denom, req.Asset)
	}

	covers, err := utils.AmountCovers(pay.Amount, req.MaxAmountRequired)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidAuthorization, Err: err}
	}

	if !covers {
		return invalidf(ReasonAmountInsufficient, "amount %s does not cover %s", pay.Amount, req.MaxAmountRequired)
	}

	if pay.TxBase64 == "" {
		return invalidf(ReasonInvalidTransaction, "txBase64 is required")
	}

	if _, err := base64.StdEncoding.DecodeString(pay.TxBase64); err != nil {
		return &ValidationError{Reason: ReasonInvalidTransaction, Err: err}
	}

	if body.Signature == "" {
		return invalidf(ReasonInvalidSignature, "signature is required")
	}

	return nil
}

// validBech32 checks that addr is well-formed bech32 with the given account
// prefix.
func validBech32(addr, prefix string) error {
	hrp, _, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return err
	}

	if hrp != prefix {
		return fmt.Errorf("address prefix %q, expected %q", hrp, prefix)
	}

	return nil
}
