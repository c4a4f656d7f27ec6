package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/mint"
)

type errorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Details string       `json:"details,omitempty"`
	Partial *partialBody `json:"partial,omitempty"`
}

// partialBody lists what exists on chain after a creation stopped midway.
type partialBody struct {
	MintAddress     string   `json:"mintAddress"`
	ATAAddress      string   `json:"ataAddress"`
	MetadataAddress string   `json:"metadataAddress"`
	Signatures      []string `json:"signatures"`
	FailedStep      string   `json:"failedStep"`
	FailedSignature string   `json:"failedSignature,omitempty"`
}

type errorClass struct {
	status  int
	code    string
	message string
}

// errorTable maps sentinel errors to responses. First match wins.
var errorTable = []struct {
	err   error
	class errorClass
}{
	{domain.ErrFractionalAmount, errorClass{http.StatusBadRequest, "fractional_amount", "Validation failed"}},
	{domain.ErrAmountOverflow, errorClass{http.StatusBadRequest, "amount_overflow", "Validation failed"}},
	{domain.ErrInvalidMetadata, errorClass{http.StatusBadRequest, "invalid_metadata", "Validation failed"}},
	{domain.ErrInvalidAddress, errorClass{http.StatusBadRequest, "invalid_address", "Validation failed"}},
	{domain.ErrInvalidRequest, errorClass{http.StatusBadRequest, "invalid_request", "Validation failed"}},
	{domain.ErrNotAMint, errorClass{http.StatusBadRequest, "not_a_mint", "Account is not a token mint"}},
	{domain.ErrFileTooLarge, errorClass{http.StatusRequestEntityTooLarge, "file_too_large", "File too large"}},
	{domain.ErrUnsupportedMediaType, errorClass{http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported file type"}},
	{domain.ErrAuthorityAlreadyRevoked, errorClass{http.StatusConflict, "authority_already_revoked", "Authority already revoked"}},
	{domain.ErrNotAuthority, errorClass{http.StatusForbidden, "not_authority", "Service wallet is not the authority"}},
	{domain.ErrMintNotFound, errorClass{http.StatusNotFound, "mint_not_found", "Mint not found"}},
	{domain.ErrSessionNotFound, errorClass{http.StatusNotFound, "session_not_found", "Upload session not found"}},
	{domain.ErrWalletNotConfigured, errorClass{http.StatusServiceUnavailable, "wallet_not_configured", "Service wallet is not configured"}},
	{domain.ErrPinningNotConfigured, errorClass{http.StatusServiceUnavailable, "pinning_not_configured", "Pinning is not configured"}},
	{domain.ErrTransactionFailed, errorClass{http.StatusInternalServerError, "transaction_failed", "Transaction failed"}},
	{domain.ErrBlockhashExpired, errorClass{http.StatusInternalServerError, "blockhash_expired", "Transaction expired before confirmation"}},
	{domain.ErrUpstream, errorClass{http.StatusInternalServerError, "upstream_error", "Upstream call failed"}},
}

var internalError = errorClass{http.StatusInternalServerError, "internal_error", "Operation failed"}

func classify(err error) errorClass {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.class
		}
	}
	return internalError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps err to a status and writes the error body.
// A *mint.PartialError also carries the accounts that were created.
func writeError(w http.ResponseWriter, err error) {
	c := classify(err)
	resp := errorResponse{Error: c.message, Code: c.code, Details: err.Error()}

	var partial *mint.PartialError
	if errors.As(err, &partial) && partial.Result != nil {
		resp.Code = "partial_completion"
		resp.Partial = &partialBody{
			MintAddress:     partial.Result.MintAddress,
			ATAAddress:      partial.Result.AssociatedAccount,
			MetadataAddress: partial.Result.MetadataAccount,
			Signatures:      partial.Result.Signatures,
			FailedStep:      partial.Step,
			FailedSignature: partial.Signature,
		}
		c.status = http.StatusInternalServerError
	}

	writeJSON(w, c.status, resp)
}

func explorerTxLink(sig, cluster string) string {
	return "https://explorer.solana.com/tx/" + sig + clusterQuery(cluster)
}

func solscanTxLink(sig, cluster string) string {
	return "https://solscan.io/tx/" + sig + clusterQuery(cluster)
}

// clusterQuery omits the parameter for mainnet, which both explorers default to.
func clusterQuery(cluster string) string {
	switch cluster {
	case "", "mainnet-beta":
		return ""
	default:
		return "?cluster=" + cluster
	}
}
