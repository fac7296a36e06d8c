package types

// Network represents supported blockchain networks.
type Network string

const (
	// EVM Networks
	NetworkEthereum        Network = "ethereum"
	NetworkEthereumSepolia Network = "ethereum-sepolia" // testnet
	NetworkBase            Network = "base"
	NetworkBaseSepolia     Network = "base-sepolia" // testnet
	NetworkPolygon         Network = "polygon"
	NetworkPolygonAmoy     Network = "polygon-amoy" // testnet

	// Solana Networks
	NetworkSolana       Network = "solana"
	NetworkSolanaDevnet Network = "solana-devnet" // testnet

	// Cosmos Networks
	NetworkCosmosHub     Network = "cosmoshub-4"
	NetworkCosmosTestnet Network = "theta-testnet-001"
)

// ChainFamily classifies a network into a blockchain family.
type ChainFamily string

const (
	ChainEVM     ChainFamily = "evm"
	ChainSolana  ChainFamily = "solana"
	ChainCosmos  ChainFamily = "cosmos"
	ChainUnknown ChainFamily = "unknown"
)

// Helper functions for network classification

func (n Network) IsEVM() bool {
	switch n {
	case NetworkEthereum, NetworkEthereumSepolia, NetworkBase, NetworkBaseSepolia, NetworkPolygon, NetworkPolygonAmoy:
		return true
	}
	return false
}

func (n Network) IsSolana() bool {
	return n == NetworkSolana || n == NetworkSolanaDevnet
}

func (n Network) IsCosmos() bool {
	return n == NetworkCosmosHub || n == NetworkCosmosTestnet
}

func (n Network) IsTestnet() bool {
	switch n {
	case NetworkEthereumSepolia, NetworkBaseSepolia, NetworkPolygonAmoy, NetworkSolanaDevnet, NetworkCosmosTestnet:
		return true
	}
	return false
}

// Family returns the blockchain family the network belongs to.
func (n Network) Family() ChainFamily {
	switch {
	case n.IsEVM():
		return ChainEVM
	case n.IsSolana():
		return ChainSolana
	case n.IsCosmos():
		return ChainCosmos
	default:
		return ChainUnknown
	}
}

func (n Network) String() string {
	return string(n)
}
