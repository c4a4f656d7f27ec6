package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/mint"
	"solana-token-minter/internal/oplog"
	"solana-token-minter/internal/solana"
)

const maxJSONBody = 64 << 10

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type createTokenRequest struct {
	Name     looseString `json:"name"`
	Symbol   looseString `json:"symbol"`
	URI      looseString `json:"uri"`
	Supply   looseString `json:"supply"`
	Decimals looseString `json:"decimals"`
}

type createTokenResponse struct {
	MintAddress          string   `json:"mintAddress"`
	TransactionSignature string   `json:"transactionSignature"`
	ExplorerLinkCreate   string   `json:"explorerLinkCreate"`
	ATAAddress           string   `json:"ataAddress"`
	MetadataAddress      string   `json:"metadataAddress"`
	Signatures           []string `json:"signatures"`
	Mode                 string   `json:"mode"`
}

type mintAddressRequest struct {
	MintAddress string `json:"mintAddress"`
}

type revokeResponse struct {
	TransactionSignature string `json:"transactionSignature"`
	ExplorerLink         string `json:"explorerLink"`
	SolscanTxLink        string `json:"solscanTxLink"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func (req createTokenRequest) toDomain() (domain.TokenCreationRequest, error) {
	var missing []string
	for _, f := range []struct {
		name  string
		value looseString
	}{
		{"name", req.Name}, {"symbol", req.Symbol}, {"uri", req.URI},
		{"supply", req.Supply}, {"decimals", req.Decimals},
	} {
		if strings.TrimSpace(string(f.value)) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.TokenCreationRequest{}, fmt.Errorf("%w: missing fields: %s",
			domain.ErrInvalidRequest, strings.Join(missing, ", "))
	}

	decimals, err := strconv.ParseUint(strings.TrimSpace(string(req.Decimals)), 10, 8)
	if err != nil {
		return domain.TokenCreationRequest{}, fmt.Errorf("%w: decimals must be an integer in 0..255", domain.ErrInvalidRequest)
	}

	return domain.TokenCreationRequest{
		Name:     strings.TrimSpace(string(req.Name)),
		Symbol:   strings.TrimSpace(string(req.Symbol)),
		URI:      strings.TrimSpace(string(req.URI)),
		Supply:   strings.TrimSpace(string(req.Supply)),
		Decimals: uint8(decimals),
	}, nil
}

func (h *handler) createToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body createTokenRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := body.toDomain()
	if err == nil {
		_, err = mint.ValidateRequest(req)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	// Submitted steps must finish even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	res, err := h.Creator.CreateToken(ctx, req)

	entry := oplog.Entry{Operation: domain.OpCreateToken, Started: start, Err: err}
	var partial *mint.PartialError
	switch {
	case errors.As(err, &partial):
		entry.Partial = true
		entry.MintAddress = partial.Result.MintAddress
		entry.Signature = partial.Signature
		if n := len(partial.Result.Signatures); n > 0 {
			entry.Signature = partial.Result.Signatures[n-1]
		}
	case res != nil:
		entry.MintAddress = res.MintAddress
		entry.Signature = res.Signatures[len(res.Signatures)-1]
	}
	h.OpLog.Record(ctx, entry)

	if err != nil {
		h.logger.Error("create token failed", zap.String("symbol", req.Symbol), zap.Error(err))
		writeError(w, err)
		return
	}

	sig := res.CreationSignature()
	writeJSON(w, http.StatusOK, createTokenResponse{
		MintAddress:          res.MintAddress,
		TransactionSignature: sig,
		ExplorerLinkCreate:   explorerTxLink(sig, h.Cluster),
		ATAAddress:           res.AssociatedAccount,
		MetadataAddress:      res.MetadataAccount,
		Signatures:           res.Signatures,
		Mode:                 string(res.Mode),
	})
}

func (h *handler) revokeMintAuthority(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r, domain.OpRevokeMint, h.Revoker.RevokeMintAuthority)
}

func (h *handler) revokeFreezeAuthority(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r, domain.OpRevokeFreeze, h.Revoker.RevokeFreezeAuthority)
}

func (h *handler) revoke(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, string) (*domain.RevocationResult, error)) {
	start := time.Now()

	var body mintAddressRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	mintAddr := strings.TrimSpace(body.MintAddress)
	if mintAddr == "" {
		writeError(w, fmt.Errorf("%w: mintAddress is required", domain.ErrInvalidRequest))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	res, err := fn(ctx, mintAddr)

	entry := oplog.Entry{Operation: op, MintAddress: mintAddr, Started: start, Err: err}
	if res != nil {
		entry.Signature = res.Signature
	}
	h.OpLog.Record(ctx, entry)

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revokeResponse{
		TransactionSignature: res.Signature,
		ExplorerLink:         explorerTxLink(res.Signature, h.Cluster),
		SolscanTxLink:        solscanTxLink(res.Signature, h.Cluster),
	})
}

type tokenRecordJSON struct {
	ID                string   `json:"id"`
	Kind              string   `json:"kind"`
	Status            string   `json:"status"`
	Name              string   `json:"name,omitempty"`
	Symbol            string   `json:"symbol,omitempty"`
	URI               string   `json:"uri,omitempty"`
	Supply            string   `json:"supply,omitempty"`
	Decimals          uint8    `json:"decimals"`
	Mode              string   `json:"mode,omitempty"`
	AssociatedAccount string   `json:"ataAddress,omitempty"`
	MetadataAccount   string   `json:"metadataAddress,omitempty"`
	Signatures        []string `json:"signatures"`
	FailedStep        *string  `json:"failedStep,omitempty"`
	Error             *string  `json:"error,omitempty"`
	CreatedAt         int64    `json:"createdAt"`
}

type operationJSON struct {
	EventID    string  `json:"eventId"`
	Operation  string  `json:"operation"`
	Status     string  `json:"status"`
	Signature  string  `json:"signature,omitempty"`
	DurationMs int64   `json:"durationMs"`
	Error      *string `json:"error,omitempty"`
	Timestamp  int64   `json:"timestamp"`
}

type tokenHistoryResponse struct {
	MintAddress string            `json:"mintAddress"`
	Records     []tokenRecordJSON `json:"records"`
	Operations  []operationJSON   `json:"operations"`
}

func (h *handler) tokenHistory(w http.ResponseWriter, r *http.Request) {
	mintAddr := chi.URLParam(r, "mint")
	if _, err := solana.ParsePublicKey(mintAddr); err != nil {
		writeError(w, err)
		return
	}

	resp := tokenHistoryResponse{
		MintAddress: mintAddr,
		Records:     []tokenRecordJSON{},
		Operations:  []operationJSON{},
	}

	if h.Records != nil {
		records, err := h.Records.GetByMint(r.Context(), mintAddr)
		if err != nil {
			writeError(w, fmt.Errorf("load token records: %w", err))
			return
		}
		for _, rec := range records {
			sigs := rec.Signatures
			if sigs == nil {
				sigs = []string{}
			}
			resp.Records = append(resp.Records, tokenRecordJSON{
				ID:                rec.ID,
				Kind:              rec.Kind,
				Status:            rec.Status,
				Name:              rec.Name,
				Symbol:            rec.Symbol,
				URI:               rec.URI,
				Supply:            rec.Supply,
				Decimals:          rec.Decimals,
				Mode:              string(rec.Mode),
				AssociatedAccount: rec.AssociatedAccount,
				MetadataAccount:   rec.MetadataAccount,
				Signatures:        sigs,
				FailedStep:        rec.FailedStep,
				Error:             rec.Error,
				CreatedAt:         rec.CreatedAt,
			})
		}
	}

	if h.Operations != nil {
		events, err := h.Operations.GetByMint(r.Context(), mintAddr)
		if err != nil {
			writeError(w, fmt.Errorf("load operation log: %w", err))
			return
		}
		for _, e := range events {
			resp.Operations = append(resp.Operations, operationJSON{
				EventID:    e.EventID,
				Operation:  e.Operation,
				Status:     e.Status,
				Signature:  e.Signature,
				DurationMs: e.DurationMs,
				Error:      e.Error,
				Timestamp:  e.Timestamp,
			})
		}
	}

	if len(resp.Records) == 0 && len(resp.Operations) == 0 {
		writeError(w, fmt.Errorf("no history for %s: %w", mintAddr, domain.ErrMintNotFound))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
