package domain

import "errors"

// Validation errors. Raised before any network call is made.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrFractionalAmount     = errors.New("supply has more fractional digits than decimals allow")
	ErrAmountOverflow       = errors.New("supply in base units exceeds u64")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidMetadata      = errors.New("invalid metadata document")
	ErrInvalidAddress       = errors.New("invalid base58 address")
)

// Upstream errors. Never retried.
var (
	ErrUpstream          = errors.New("upstream call failed")
	ErrTransactionFailed = errors.New("transaction failed on chain")
	ErrBlockhashExpired  = errors.New("blockhash expired before confirmation")
)

// Configuration errors. Surface on first use.
var (
	ErrWalletNotConfigured  = errors.New("service wallet secret is not configured")
	ErrPinningNotConfigured = errors.New("pinning credentials are not configured")
)

// Domain conflicts and lookups.
var (
	ErrAuthorityAlreadyRevoked = errors.New("authority already revoked")
	ErrNotAuthority            = errors.New("service wallet is not the authority")
	ErrMintNotFound            = errors.New("mint account not found")
	ErrNotAMint                = errors.New("account is not an spl token mint")
	ErrSessionNotFound         = errors.New("upload session not found")
)
