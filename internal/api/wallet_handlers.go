package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/oplog"
)

const pingTimeout = 5 * time.Second

type tokenAmountJSON struct {
	Mint   string `json:"mint"`
	Amount string `json:"amount"`
}

type splTokenJSON struct {
	Mint      string `json:"mint"`
	Account   string `json:"account"`
	RawAmount string `json:"rawAmount"`
	Decimals  uint8  `json:"decimals"`
	Amount    string `json:"amount"`
}

type balanceResponse struct {
	ServiceAddress string            `json:"serviceAddress"`
	SOL            float64           `json:"sol"`
	Lamports       uint64            `json:"lamports"`
	Tokens         []tokenAmountJSON `json:"tokens"`
	SPLTokens      []splTokenJSON    `json:"splTokens"`
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	bal, err := h.Balance.GetBalance(r.Context())
	h.OpLog.Record(r.Context(), oplog.Entry{Operation: domain.OpBalance, Started: start, Err: err})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := balanceResponse{
		ServiceAddress: bal.Address,
		SOL:            bal.SOL,
		Lamports:       bal.Lamports,
		Tokens:         make([]tokenAmountJSON, 0, len(bal.Holdings)),
		SPLTokens:      make([]splTokenJSON, 0, len(bal.Holdings)),
	}
	for _, hd := range bal.Holdings {
		resp.Tokens = append(resp.Tokens, tokenAmountJSON{Mint: hd.Mint, Amount: hd.Amount})
		resp.SPLTokens = append(resp.SPLTokens, splTokenJSON{
			Mint:      hd.Mint,
			Account:   hd.Account,
			RawAmount: strconv.FormatUint(hd.RawAmount, 10),
			Decimals:  hd.Decimals,
			Amount:    hd.Amount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type pingResponse struct {
	Status string `json:"status"`
	Slot   int64  `json:"slot"`
}

func (h *handler) ping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.Chain.GetHealth(ctx); err != nil {
		h.logger.Warn("rpc unhealthy", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "RPC endpoint unhealthy", Code: "rpc_unhealthy", Details: err.Error(),
		})
		return
	}
	slot, err := h.Chain.GetSlot(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "RPC endpoint unhealthy", Code: "rpc_unhealthy", Details: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, pingResponse{Status: "ok", Slot: slot})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
