package solana

// Well-known program and sysvar addresses.
const (
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	MetaplexTokenMetadataID  = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	RentSysvarID             = "SysvarRent111111111111111111111111111111111"
)

// Account sizes of SPL token program accounts.
const (
	MintAccountSize  = 82
	TokenAccountSize = 165
)
