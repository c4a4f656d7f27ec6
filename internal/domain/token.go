package domain

// Metaplex limits for on-chain metadata fields (bytes).
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// MintMode selects how the creation steps are submitted.
type MintMode string

const (
	// MintModeCombined submits every creation instruction in one transaction.
	MintModeCombined MintMode = "combined"
	// MintModeSequential submits each step as its own confirmed transaction.
	MintModeSequential MintMode = "sequential"
)

// Valid reports whether m is a known mode.
func (m MintMode) Valid() bool {
	return m == MintModeCombined || m == MintModeSequential
}

// TokenCreationRequest is the input to a fungible token creation.
// Supply is kept as a decimal string so it can be scaled without float loss.
type TokenCreationRequest struct {
	Name     string // metadata name, <= 32 bytes
	Symbol   string // metadata symbol, <= 10 bytes
	URI      string // off-chain metadata JSON URI, <= 200 bytes
	Supply   string // human-readable supply, e.g. "1000000" or "12.5"
	Decimals uint8  // mint decimals
}

// TokenCreationResult is returned once creation finished (or partially finished).
// It is built once and never mutated after being handed to the caller.
type TokenCreationResult struct {
	MintAddress       string   // base58 mint public key
	AssociatedAccount string   // service wallet ATA for the mint
	MetadataAccount   string   // Metaplex metadata PDA
	Signatures        []string // confirmed signatures, in submission order
	Mode              MintMode
	BaseUnits         uint64 // supply in base units that was minted
}

// CreationSignature returns the signature that created the mint account.
func (r *TokenCreationResult) CreationSignature() string {
	if r == nil || len(r.Signatures) == 0 {
		return ""
	}
	return r.Signatures[0]
}

// AuthorityKind identifies a mint authority that can be revoked.
type AuthorityKind string

const (
	AuthorityMint   AuthorityKind = "mint"
	AuthorityFreeze AuthorityKind = "freeze"
)

// RevocationResult describes a confirmed authority revocation.
type RevocationResult struct {
	MintAddress string
	Authority   AuthorityKind
	Signature   string
}

// TokenRecord is the audit row kept for every creation or revocation attempt.
// Corresponds to token_records table in PostgreSQL.
type TokenRecord struct {
	ID                string   // uuid
	Kind              string   // "create" | "revoke_mint" | "revoke_freeze"
	MintAddress       string   // may be empty if creation failed before the mint existed
	Name              string   // empty for revocations
	Symbol            string   // empty for revocations
	URI               string   // empty for revocations
	Supply            string   // human-readable supply as requested
	Decimals          uint8    // mint decimals
	Mode              MintMode // empty for revocations
	AssociatedAccount string
	MetadataAccount   string
	Signatures        []string
	Status            string  // "success" | "partial" | "failed"
	FailedStep        *string // set when Status != success
	Error             *string // error text when Status != success
	CreatedAt         int64   // record creation timestamp (ms)
}

// Token record kinds.
const (
	RecordKindCreate       = "create"
	RecordKindRevokeMint   = "revoke_mint"
	RecordKindRevokeFreeze = "revoke_freeze"
)

// Token record statuses.
const (
	RecordStatusSuccess = "success"
	RecordStatusPartial = "partial"
	RecordStatusFailed  = "failed"
)
