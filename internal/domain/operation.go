package domain

// Operation names recorded in the operation log.
const (
	OpCreateToken      = "create_token"
	OpRevokeMint       = "revoke_mint_authority"
	OpRevokeFreeze     = "revoke_freeze_authority"
	OpUploadLogo       = "upload_logo"
	OpGenerateMetadata = "generate_metadata"
	OpUploadMetadata   = "upload_metadata"
	OpBalance          = "balance"
)

// Operation outcomes.
const (
	OpStatusOK      = "ok"
	OpStatusError   = "error"
	OpStatusPartial = "partial"
)

// OperationEvent is an append-only log entry for one service operation.
// Corresponds to operation_log table in ClickHouse.
type OperationEvent struct {
	EventID     string  // uuid
	Operation   string  // one of the Op* names
	Status      string  // ok | error | partial
	MintAddress string  // empty when not applicable
	Signature   string  // last confirmed signature, empty when none
	SessionID   string  // upload session, empty when not applicable
	DurationMs  int64   // wall time of the operation
	Error       *string // error text (nullable)
	Timestamp   int64   // event time (ms)
}
