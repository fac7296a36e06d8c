package schemes

import (
	"github.com/vitwit/x402-paywall/types"
)

// Asset identifies the token a payment is made in, plus the display metadata
// buyers need to render it.
type Asset struct {
	// Contract address (EVM), mint (Solana) or denom (Cosmos).
	Address string

	// Number of decimal places of the atomic unit.
	Decimals int

	// Display name and ticker symbol.
	Name   string
	Symbol string

	// Standard the asset is issued under.
	Standard types.TokenStandard

	// EIP-712 signing domain of the contract. Zero value outside EVM.
	EIP712 EIP712Domain
}

// EIP712Domain is the name/version pair of an EVM asset's signing domain,
// published in requirement extra so buyers can build typed-data signatures.
type EIP712Domain struct {
	Name    string
	Version string
}

// Deployed USDC contracts per supported network. 6 decimals everywhere.
var (
	USDCEthereum = Asset{
		Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Decimals: 6,
		Name:     "USD Coin",
		Symbol:   "USDC",
		Standard: types.TokenStandardERC20,
		EIP712:   EIP712Domain{Name: "USD Coin", Version: "2"},
	}

	USDCEthereumSepolia = Asset{
		Address:  "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		Decimals: 6,
		Name:     "USDC",
		Symbol:   "USDC",
		Standard: types.TokenStandardERC20,
		EIP712:   EIP712Domain{Name: "USDC", Version: "2"},
	}

	USDCBase = Asset{
		Address:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Decimals: 6,
		Name:     "USD Coin",
		Symbol:   "USDC",
		Standard: types.TokenStandardERC20,
		EIP712:   EIP712Domain{Name: "USD Coin", Version: "2"},
	}

	USDCBaseSepolia = Asset{
		Address:  "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Decimals: 6,
		Name:     "USDC",
		Symbol:   "USDC",
		Standard: types.TokenStandardERC20,
		EIP712:   EIP712Domain{Name: "USDC", Version: "2"},
	}

	USDCPolygon = Asset{
		Address:  "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Decimals: 6,
		Name:     "USD Coin",
		Symbol:   "USDC",
		Standard: types.TokenStandardERC20,
		EIP712:   EIP712Domain{Name: "USD Coin", Version: "2"},
	}

	USDCPolygonAmoy = Asset{
		Address:  "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		Decimals: 6,
		Name:     "USDC",
		Symbol:   "USDC",
		Standard: types.TokenStandardERC20,
		EIP712:   EIP712Domain{Name: "USDC", Version: "2"},
	}

	USDCSolana = Asset{
		Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals: 6,
		Name:     "USD Coin",
		Symbol:   "USDC",
		Standard: types.TokenStandardSPL,
	}

	USDCSolanaDevnet = Asset{
		Address:  "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		Decimals: 6,
		Name:     "USDC",
		Symbol:   "USDC",
		Standard: types.TokenStandardSPL,
	}
)

// USDCFor returns the USDC asset deployed on the given network.
func USDCFor(network types.Network) (Asset, bool) {
	switch network {
	case types.NetworkEthereum:
		return USDCEthereum, true
	case types.NetworkEthereumSepolia:
		return USDCEthereumSepolia, true
	case types.NetworkBase:
		return USDCBase, true
	case types.NetworkBaseSepolia:
		return USDCBaseSepolia, true
	case types.NetworkPolygon:
		return USDCPolygon, true
	case types.NetworkPolygonAmoy:
		return USDCPolygonAmoy, true
	case types.NetworkSolana:
		return USDCSolana, true
	case types.NetworkSolanaDevnet:
		return USDCSolanaDevnet, true
	default:
		return Asset{}, false
	}
}
