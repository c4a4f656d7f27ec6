package mint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/observability"
	"solana-token-minter/internal/solana"
	"solana-token-minter/internal/storage"
	"solana-token-minter/internal/wallet"
)

// Revoker permanently removes a mint's mint or freeze authority.
type Revoker struct {
	submitter *solana.Submitter
	wallet    *wallet.ServiceWallet
	records   storage.TokenRecordStore
	logger    *zap.Logger
}

// NewRevoker creates a Revoker. records may be nil.
func NewRevoker(deps Deps) *Revoker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Revoker{
		submitter: deps.Submitter,
		wallet:    deps.Wallet,
		records:   deps.Records,
		logger:    logger.Named("revoke"),
	}
}

// RevokeMintAuthority sets the mint authority of mint to none. No more supply can be minted afterwards.
func (r *Revoker) RevokeMintAuthority(ctx context.Context, mint string) (*domain.RevocationResult, error) {
	return r.revoke(ctx, mint, domain.AuthorityMint)
}

// RevokeFreezeAuthority sets the freeze authority of mint to none.
func (r *Revoker) RevokeFreezeAuthority(ctx context.Context, mint string) (*domain.RevocationResult, error) {
	return r.revoke(ctx, mint, domain.AuthorityFreeze)
}

func (r *Revoker) revoke(ctx context.Context, mint string, kind domain.AuthorityKind) (*domain.RevocationResult, error) {
	start := time.Now()
	res, err := r.doRevoke(ctx, mint, kind)

	status := "revoked"
	if err != nil {
		status = revokeStatus(err)
	}
	observability.RecordAuthorityRevoked(string(kind), status)
	observability.RecordTransaction(revokeStep(kind), status, time.Since(start).Seconds())

	r.record(ctx, mint, kind, res, err)
	return res, err
}

func (r *Revoker) doRevoke(ctx context.Context, mint string, kind domain.AuthorityKind) (*domain.RevocationResult, error) {
	mintKey, err := solana.ParsePublicKey(mint)
	if err != nil {
		return nil, err
	}

	payer, err := r.wallet.Account()
	if err != nil {
		return nil, err
	}

	state, err := r.readMint(ctx, mint)
	if err != nil {
		return nil, err
	}

	current := state.MintAuthority
	authType := token.AuthorityTypeMintTokens
	if kind == domain.AuthorityFreeze {
		current = state.FreezeAuthority
		authType = token.AuthorityTypeFreezeAccount
	}
	if current == nil {
		return nil, fmt.Errorf("%s authority of %s: %w", kind, mint, domain.ErrAuthorityAlreadyRevoked)
	}
	if *current != payer.PublicKey.ToBase58() {
		return nil, fmt.Errorf("%s authority of %s is %s: %w", kind, mint, *current, domain.ErrNotAuthority)
	}

	ix := token.SetAuthority(token.SetAuthorityParam{
		Account:  mintKey,
		NewAuth:  nil,
		AuthType: authType,
		Auth:     payer.PublicKey,
	})

	sig, err := r.submitter.Submit(ctx, payer, nil, []types.Instruction{ix})
	if err != nil {
		r.logger.Warn("revocation failed",
			zap.String("mint", mint),
			zap.String("authority", string(kind)),
			zap.String("signature", sig),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("authority revoked",
		zap.String("mint", mint),
		zap.String("authority", string(kind)),
		zap.String("signature", sig))
	return &domain.RevocationResult{MintAddress: mint, Authority: kind, Signature: sig}, nil
}

// readMint fetches and decodes a mint account owned by the token program.
func (r *Revoker) readMint(ctx context.Context, mint string) (*solana.MintAccount, error) {
	info, err := r.submitter.Ledger().GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%s: %w", mint, domain.ErrMintNotFound)
	}
	if info.Owner != common.TokenProgramID.ToBase58() {
		return nil, fmt.Errorf("%s is owned by %s: %w", mint, info.Owner, domain.ErrNotAMint)
	}

	data, err := info.DecodeData()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mint, domain.ErrNotAMint)
	}
	state, err := solana.DecodeMintAccount(data)
	if err != nil || !state.IsInitialized {
		return nil, fmt.Errorf("%s: %w", mint, domain.ErrNotAMint)
	}
	return state, nil
}

func (r *Revoker) record(ctx context.Context, mint string, kind domain.AuthorityKind, res *domain.RevocationResult, cause error) {
	if r.records == nil {
		return
	}

	rec := &domain.TokenRecord{
		ID:          uuid.NewString(),
		Kind:        domain.RecordKindRevokeMint,
		MintAddress: mint,
		Status:      domain.RecordStatusSuccess,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if kind == domain.AuthorityFreeze {
		rec.Kind = domain.RecordKindRevokeFreeze
	}
	if res != nil {
		rec.Signatures = []string{res.Signature}
	}
	if cause != nil {
		step := revokeStep(kind)
		msg := cause.Error()
		rec.Status = domain.RecordStatusFailed
		rec.FailedStep = &step
		rec.Error = &msg
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordWriteTimeout)
	defer cancel()
	if err := r.records.Insert(wctx, rec); err != nil {
		r.logger.Warn("token record write failed", zap.String("mint", mint), zap.Error(err))
	}
}

func revokeStep(kind domain.AuthorityKind) string {
	if kind == domain.AuthorityFreeze {
		return domain.OpRevokeFreeze
	}
	return domain.OpRevokeMint
}

func revokeStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthorityAlreadyRevoked):
		return "already_revoked"
	case errors.Is(err, domain.ErrNotAuthority):
		return "not_authority"
	default:
		return "failed"
	}
}
