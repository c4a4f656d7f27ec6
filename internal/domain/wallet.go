package domain

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// WalletBalance is a snapshot of the service wallet holdings.
type WalletBalance struct {
	Address  string
	Lamports uint64
	SOL      float64
	Holdings []TokenHolding
}

// TokenHolding is one non-empty SPL token account owned by the wallet.
type TokenHolding struct {
	Mint      string // mint address
	Account   string // token account address
	RawAmount uint64 // amount in base units
	Decimals  uint8  // decimals of the mint
	Amount    string // RawAmount scaled by Decimals, canonical decimal string
}
