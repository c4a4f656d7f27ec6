package mint

import (
	"context"

	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
)

// CombinedOrchestrator submits every creation instruction in a single transaction,
// so creation either fully lands or leaves nothing behind. When the transaction was
// sent but its outcome could not be observed, *PartialError carries the addresses.
type CombinedOrchestrator struct {
	engine
}

// NewCombined creates a CombinedOrchestrator.
func NewCombined(deps Deps) *CombinedOrchestrator {
	return &CombinedOrchestrator{engine: newEngine(deps, domain.MintModeCombined)}
}

// CreateToken creates the mint, the service wallet ATA, mints the supply and
// attaches metadata in one transaction.
func (o *CombinedOrchestrator) CreateToken(ctx context.Context, req domain.TokenCreationRequest) (*domain.TokenCreationResult, error) {
	p, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	ixs := append(p.createMintInstructions(),
		p.createATAInstruction(),
		p.mintToInstruction(),
		p.createMetadataInstruction(),
	)

	sig, err := o.submit(ctx, StepCombined, p, []types.Account{p.mint}, ixs)
	if err != nil {
		if outcomeUnknown(sig, err) {
			res := p.result(o.mode, nil)
			o.record(ctx, req, res, StepCombined, err)
			return nil, &PartialError{Result: res, Step: StepCombined, Signature: sig, Err: err}
		}
		o.record(ctx, req, nil, StepCombined, err)
		return nil, err
	}

	res := p.result(o.mode, []string{sig})
	o.logger.Info("token created",
		zap.String("mint", res.MintAddress),
		zap.String("symbol", req.Symbol),
		zap.String("signature", sig),
		zap.Uint64("base_units", res.BaseUnits))
	o.record(ctx, req, res, "", nil)
	return res, nil
}
