package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"solana-token-minter/internal/domain"
)

// newRPCServer answers every JSON-RPC request with the value returned by result.
func newRPCServer(t *testing.T, result func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result(req),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", req.Method)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 10},
			"value": map[string]interface{}{
				"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
				"lastValidBlockHeight": uint64(3090),
			},
		}
	})

	client := NewHTTPClient(server.URL)

	bh, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}

	if bh.Blockhash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %s", bh.Blockhash)
	}
	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("expected lastValidBlockHeight 3090, got %d", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}
		if len(req.Params) != 2 {
			t.Errorf("expected 2 params, got %d", len(req.Params))
			return ""
		}
		if req.Params[0] != base64.StdEncoding.EncodeToString(raw) {
			t.Errorf("unexpected payload %v", req.Params[0])
		}
		cfg, _ := req.Params[1].(map[string]interface{})
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		return "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	})

	client := NewHTTPClient(server.URL)

	sig, err := client.SendTransaction(context.Background(), raw)
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW" {
		t.Errorf("unexpected signature %s", sig)
	}
}

func TestHTTPClient_SendTransaction_NeverRetried(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.SendTransaction(context.Background(), []byte{1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getSignatureStatuses" {
			t.Errorf("expected method getSignatureStatuses, got %s", req.Method)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 82},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               int64(72),
					"confirmations":      int64(10),
					"err":                nil,
					"confirmationStatus": "confirmed",
				},
				nil,
				map[string]interface{}{
					"slot":               int64(48),
					"confirmations":      nil,
					"err":                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
					"confirmationStatus": "finalized",
				},
			},
		}
	})

	client := NewHTTPClient(server.URL)

	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Confirmed() || statuses[0].Err != nil {
		t.Errorf("expected first status confirmed without error, got %+v", statuses[0])
	}
	if statuses[1] != nil {
		t.Errorf("expected nil for unknown signature, got %+v", statuses[1])
	}
	if statuses[2].Err == nil {
		t.Error("expected error on third status")
	}
	if statuses[2].Confirmations != nil {
		t.Errorf("expected nil confirmations once rooted, got %d", *statuses[2].Confirmations)
	}
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   uint64(2_500_000_000),
		}
	})

	client := NewHTTPClient(server.URL)

	lamports, err := client.GetBalance(context.Background(), "owner")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if lamports != 2_500_000_000 {
		t.Errorf("expected 2500000000 lamports, got %d", lamports)
	}
}

func TestHTTPClient_GetTokenAccountsByOwner(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getTokenAccountsByOwner" {
			t.Errorf("expected method getTokenAccountsByOwner, got %s", req.Method)
		}
		filter, _ := req.Params[1].(map[string]interface{})
		if filter["programId"] != TokenProgramID {
			t.Errorf("expected token program filter, got %v", filter["programId"])
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"pubkey": "acct1",
					"account": map[string]interface{}{
						"lamports":   uint64(2039280),
						"owner":      TokenProgramID,
						"data":       []string{"AAEC", "base64"},
						"executable": false,
						"rentEpoch":  uint64(0),
					},
				},
			},
		}
	})

	client := NewHTTPClient(server.URL)

	accounts, err := client.GetTokenAccountsByOwner(context.Background(), "owner", TokenProgramID)
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}

	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Pubkey != "acct1" {
		t.Errorf("unexpected pubkey %s", accounts[0].Pubkey)
	}
	data, err := accounts[0].Account.DecodeData()
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if len(data) != 3 || data[2] != 2 {
		t.Errorf("unexpected data %v", data)
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   uint64(1000000),
				"owner":      TokenProgramID,
				"data":       []string{"SGVsbG8gV29ybGQ=", "base64"},
				"executable": false,
				"rentEpoch":  uint64(100),
			},
		}
	})

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "testpubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Lamports != 1000000 {
		t.Errorf("expected lamports 1000000, got %d", info.Lamports)
	}
	if info.Owner != TokenProgramID {
		t.Errorf("unexpected owner: %s", info.Owner)
	}

	data, err := info.DecodeData()
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if string(data) != "Hello World" {
		t.Errorf("unexpected data: %q", data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{"value": nil}
	})

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info != nil {
		t.Errorf("expected nil for not found, got %+v", info)
	}
}

func TestHTTPClient_GetHealth(t *testing.T) {
	healthy := newRPCServer(t, func(req rpcRequest) interface{} { return "ok" })
	if err := NewHTTPClient(healthy.URL).GetHealth(context.Background()); err != nil {
		t.Errorf("expected healthy node, got %v", err)
	}

	behind := newRPCServer(t, func(req rpcRequest) interface{} { return "behind" })
	if err := NewHTTPClient(behind.URL).GetHealth(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}

	if slot != 999 {
		t.Errorf("expected slot 999, got %d", slot)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_NoRetryByDefault(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL).GetSlot(context.Background())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.SendTransaction(context.Background(), []byte{1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T", err)
	}
	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Error("expected RPCError to match ErrUpstream")
	}
	if !IsRPCError(err) {
		t.Error("expected IsRPCError to be true")
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetSlot(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
