// Package mint creates fungible SPL tokens with Metaplex metadata and revokes their authorities.
package mint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-token-minter/internal/amount"
	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/observability"
	"solana-token-minter/internal/solana"
	"solana-token-minter/internal/storage"
	"solana-token-minter/internal/wallet"
)

// Creation steps, in submission order. StepCombined covers all of them at once.
const (
	StepCreateMint     = "create_mint"
	StepCreateATA      = "create_associated_account"
	StepMintSupply     = "mint_supply"
	StepAttachMetadata = "attach_metadata"
	StepCombined       = "create_token"
)

const recordWriteTimeout = 5 * time.Second

// Orchestrator creates a token from a request.
type Orchestrator interface {
	CreateToken(ctx context.Context, req domain.TokenCreationRequest) (*domain.TokenCreationResult, error)
}

// PartialError is returned when some steps were confirmed before a later one failed,
// or when a sent transaction could not be confirmed either way.
// Confirmed steps are permanent on chain; Result lists what exists or may exist.
type PartialError struct {
	Result    *domain.TokenCreationResult
	Step      string // step that failed
	Signature string // signature of the failed step when it was sent
	Err       error
}

func (e *PartialError) Error() string {
	if len(e.Result.Signatures) == 0 {
		return fmt.Sprintf("token creation outcome unknown at %s (signature %s): %v",
			e.Step, e.Signature, e.Err)
	}
	return fmt.Sprintf("token creation stopped at %s after %d confirmed step(s): %v",
		e.Step, len(e.Result.Signatures), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Deps are the collaborators shared by both orchestrators and the revoker.
type Deps struct {
	Submitter *solana.Submitter
	Wallet    *wallet.ServiceWallet
	Records   storage.TokenRecordStore // optional
	Logger    *zap.Logger

	// NewMintAccount generates the mint keypair; types.NewAccount when nil.
	NewMintAccount func() types.Account
}

// New returns the orchestrator for mode.
func New(mode domain.MintMode, deps Deps) (Orchestrator, error) {
	switch mode {
	case domain.MintModeCombined, "":
		return NewCombined(deps), nil
	case domain.MintModeSequential:
		return NewSequential(deps), nil
	default:
		return nil, fmt.Errorf("unknown mint mode %q", mode)
	}
}

// ValidateRequest checks req and returns the supply in base units.
// It runs before any RPC call.
func ValidateRequest(req domain.TokenCreationRequest) (uint64, error) {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"name", req.Name, domain.MaxNameLength},
		{"symbol", req.Symbol, domain.MaxSymbolLength},
		{"uri", req.URI, domain.MaxURILength},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, c.field)
		}
		if len(c.value) > c.max {
			return 0, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidRequest, c.field, c.max)
		}
	}
	return amount.ToBaseUnits(req.Supply, req.Decimals)
}

// engine holds what both creation flows share.
type engine struct {
	deps   Deps
	mode   domain.MintMode
	logger *zap.Logger
}

func newEngine(deps Deps, mode domain.MintMode) engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.NewMintAccount == nil {
		deps.NewMintAccount = types.NewAccount
	}
	return engine{deps: deps, mode: mode, logger: logger.Named("mint").With(zap.String("mode", string(mode)))}
}

// plan is the fully derived set of accounts and instructions for one creation.
type plan struct {
	payer     types.Account
	mint      types.Account
	ata       common.PublicKey
	metadata  common.PublicKey
	baseUnits uint64
	rent      uint64
	req       domain.TokenCreationRequest
}

func (e engine) prepare(ctx context.Context, req domain.TokenCreationRequest) (*plan, error) {
	baseUnits, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	payer, err := e.deps.Wallet.Account()
	if err != nil {
		return nil, err
	}

	mint := e.deps.NewMintAccount()
	ata, err := solana.FindAssociatedTokenAddress(payer.PublicKey, mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive associated account: %w", err)
	}
	meta, err := solana.FindMetadataAddress(mint.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("derive metadata account: %w", err)
	}

	rent, err := e.deps.Submitter.Ledger().GetMinimumBalanceForRentExemption(ctx, solana.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("get mint rent: %w", err)
	}

	return &plan{
		payer:     payer,
		mint:      mint,
		ata:       ata,
		metadata:  meta,
		baseUnits: baseUnits,
		rent:      rent,
		req:       req,
	}, nil
}

func (p *plan) createMintInstructions() []types.Instruction {
	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     p.payer.PublicKey,
			New:      p.mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: p.rent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   p.req.Decimals,
			Mint:       p.mint.PublicKey,
			MintAuth:   p.payer.PublicKey,
			FreezeAuth: &p.payer.PublicKey,
		}),
	}
}

func (p *plan) createATAInstruction() types.Instruction {
	return associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
		Funder:                 p.payer.PublicKey,
		Owner:                  p.payer.PublicKey,
		Mint:                   p.mint.PublicKey,
		AssociatedTokenAccount: p.ata,
	})
}

func (p *plan) mintToInstruction() types.Instruction {
	return token.MintTo(token.MintToParam{
		Mint:   p.mint.PublicKey,
		To:     p.ata,
		Auth:   p.payer.PublicKey,
		Amount: p.baseUnits,
	})
}

func (p *plan) createMetadataInstruction() types.Instruction {
	return token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                p.metadata,
		Mint:                    p.mint.PublicKey,
		MintAuthority:           p.payer.PublicKey,
		Payer:                   p.payer.PublicKey,
		UpdateAuthority:         p.payer.PublicKey,
		UpdateAuthorityIsSigner: true,
		IsMutable:               true,
		Data: token_metadata.DataV2{
			Name:                 p.req.Name,
			Symbol:               p.req.Symbol,
			Uri:                  p.req.URI,
			SellerFeeBasisPoints: 0,
		},
	})
}

// result builds the caller-visible result from confirmed signatures.
func (p *plan) result(mode domain.MintMode, signatures []string) *domain.TokenCreationResult {
	return &domain.TokenCreationResult{
		MintAddress:       p.mint.PublicKey.ToBase58(),
		AssociatedAccount: p.ata.ToBase58(),
		MetadataAccount:   p.metadata.ToBase58(),
		Signatures:        append([]string(nil), signatures...),
		Mode:              mode,
		BaseUnits:         p.baseUnits,
	}
}

// submit sends one step and records its metrics.
func (e engine) submit(ctx context.Context, step string, p *plan, signers []types.Account, ixs []types.Instruction) (string, error) {
	start := time.Now()
	sig, err := e.deps.Submitter.Submit(ctx, p.payer, signers, ixs)
	status := "confirmed"
	if err != nil {
		status = "failed"
	}
	observability.RecordTransaction(step, status, time.Since(start).Seconds())

	if err != nil {
		e.logger.Warn("step failed",
			zap.String("step", step),
			zap.String("mint", p.mint.PublicKey.ToBase58()),
			zap.String("signature", sig),
			zap.Error(err))
		return sig, err
	}
	e.logger.Info("step confirmed",
		zap.String("step", step),
		zap.String("mint", p.mint.PublicKey.ToBase58()),
		zap.String("signature", sig),
		zap.Duration("elapsed", time.Since(start)))
	return sig, nil
}

// outcomeUnknown reports whether a failed step may still land: its transaction was
// sent and neither an on-chain failure nor blockhash expiry was observed.
func outcomeUnknown(sig string, err error) bool {
	return sig != "" &&
		!errors.Is(err, domain.ErrTransactionFailed) &&
		!errors.Is(err, domain.ErrBlockhashExpired)
}

// record stores the audit row for a creation attempt. Failures are logged only.
func (e engine) record(ctx context.Context, req domain.TokenCreationRequest, res *domain.TokenCreationResult, failedStep string, cause error) {
	status := domain.RecordStatusSuccess
	switch {
	case cause != nil && res != nil:
		status = domain.RecordStatusPartial
	case cause != nil:
		status = domain.RecordStatusFailed
	}
	observability.RecordTokenCreated(string(e.mode), status)

	if e.deps.Records == nil {
		return
	}

	rec := &domain.TokenRecord{
		ID:        uuid.NewString(),
		Kind:      domain.RecordKindCreate,
		Name:      req.Name,
		Symbol:    req.Symbol,
		URI:       req.URI,
		Supply:    req.Supply,
		Decimals:  req.Decimals,
		Mode:      e.mode,
		Status:    status,
		CreatedAt: time.Now().UnixMilli(),
	}
	if res != nil {
		rec.MintAddress = res.MintAddress
		rec.AssociatedAccount = res.AssociatedAccount
		rec.MetadataAccount = res.MetadataAccount
		rec.Signatures = res.Signatures
	}
	if cause != nil {
		msg := cause.Error()
		rec.Error = &msg
		if failedStep != "" {
			rec.FailedStep = &failedStep
		}
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordWriteTimeout)
	defer cancel()
	if err := e.deps.Records.Insert(wctx, rec); err != nil {
		e.logger.Warn("token record write failed", zap.String("mint", rec.MintAddress), zap.Error(err))
	}
}
