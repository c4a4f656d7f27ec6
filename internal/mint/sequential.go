package mint

import (
	"context"

	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
)

// SequentialOrchestrator submits each creation step as its own transaction and
// waits for confirmation before sending the next one.
type SequentialOrchestrator struct {
	engine
}

// NewSequential creates a SequentialOrchestrator.
func NewSequential(deps Deps) *SequentialOrchestrator {
	return &SequentialOrchestrator{engine: newEngine(deps, domain.MintModeSequential)}
}

// CreateToken runs create_mint, create_associated_account, mint_supply and
// attach_metadata in order. A failure after the first confirmed step, or a step whose
// outcome is unknown, returns *PartialError.
func (o *SequentialOrchestrator) CreateToken(ctx context.Context, req domain.TokenCreationRequest) (*domain.TokenCreationResult, error) {
	p, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name    string
		signers []types.Account
		ixs     []types.Instruction
	}{
		{StepCreateMint, []types.Account{p.mint}, p.createMintInstructions()},
		{StepCreateATA, nil, []types.Instruction{p.createATAInstruction()}},
		{StepMintSupply, nil, []types.Instruction{p.mintToInstruction()}},
		{StepAttachMetadata, nil, []types.Instruction{p.createMetadataInstruction()}},
	}

	var confirmed []string
	for _, step := range steps {
		sig, err := o.submit(ctx, step.name, p, step.signers, step.ixs)
		if err != nil {
			if len(confirmed) == 0 && !outcomeUnknown(sig, err) {
				// Nothing landed, so the mint address does not exist.
				o.record(ctx, req, nil, step.name, err)
				return nil, err
			}
			res := p.result(o.mode, confirmed)
			o.record(ctx, req, res, step.name, err)
			return nil, &PartialError{Result: res, Step: step.name, Signature: sig, Err: err}
		}
		confirmed = append(confirmed, sig)
	}

	res := p.result(o.mode, confirmed)
	o.logger.Info("token created",
		zap.String("mint", res.MintAddress),
		zap.String("symbol", req.Symbol),
		zap.Uint64("base_units", res.BaseUnits))
	o.record(ctx, req, res, "", nil)
	return res, nil
}
