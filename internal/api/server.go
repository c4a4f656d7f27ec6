// Package api exposes the minter over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/metadata"
	"solana-token-minter/internal/observability"
	"solana-token-minter/internal/oplog"
	"solana-token-minter/internal/storage"
)

// TokenCreator creates tokens. Satisfied by mint.Orchestrator.
type TokenCreator interface {
	CreateToken(ctx context.Context, req domain.TokenCreationRequest) (*domain.TokenCreationResult, error)
}

// AuthorityRevoker is satisfied by *mint.Revoker.
type AuthorityRevoker interface {
	RevokeMintAuthority(ctx context.Context, mint string) (*domain.RevocationResult, error)
	RevokeFreezeAuthority(ctx context.Context, mint string) (*domain.RevocationResult, error)
}

// MetadataUploader is satisfied by *metadata.Service.
type MetadataUploader interface {
	MaxBytes() int64
	UploadLogo(ctx context.Context, data []byte, filename, mimeType string) (*domain.UploadSession, error)
	GenerateMetadata(ctx context.Context, req metadata.GenerateRequest) (*domain.UploadSession, *domain.PinResult, error)
	UploadWithMetadata(ctx context.Context, data []byte, filename, mimeType, name, symbol, description string) (*domain.UploadSession, error)
}

// BalanceReader is satisfied by *wallet.BalanceReader.
type BalanceReader interface {
	GetBalance(ctx context.Context) (*domain.WalletBalance, error)
}

// ChainProbe is the part of the ledger used by /ping.
type ChainProbe interface {
	GetHealth(ctx context.Context) error
	GetSlot(ctx context.Context) (int64, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Creator    TokenCreator
	Revoker    AuthorityRevoker
	Metadata   MetadataUploader
	Balance    BalanceReader
	Chain      ChainProbe
	Records    storage.TokenRecordStore
	Operations storage.OperationLogStore
	OpLog      *oplog.Recorder
	Cluster    string // explorer cluster parameter
	Logger     *zap.Logger
}

type handler struct {
	Deps
	logger *zap.Logger
}

// NewRouter builds the HTTP router.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	if deps.OpLog == nil {
		deps.OpLog = oplog.NewRecorder(deps.Operations, logger)
	}
	h := &handler{Deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Post("/create-token", h.createToken)
	r.Post("/revoke-mint-authority", h.revokeMintAuthority)
	r.Post("/revoke-freeze-authority", h.revokeFreezeAuthority)
	r.Get("/tokens/{mint}", h.tokenHistory)

	r.Post("/upload-logo-only", h.uploadLogo)
	r.Post("/generate-metadata-only", h.generateMetadata)
	r.Post("/upload-metadata", h.uploadMetadata)

	r.Get("/balance", h.balance)
	r.Get("/ping", h.ping)
	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	return r
}
