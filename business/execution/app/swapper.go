package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

// Swapper executes individual hops through whitelisted routers on behalf of
// the engine identity. Output is always measured as a balance delta; the
// router's claimed return value is logged but never trusted.
type Swapper struct {
	bank    TokenBank
	routers RouterSource
	self    common.Address
	log     logger.LoggerInterface
}

// NewSwapper creates a swapper transacting as self.
func NewSwapper(bank TokenBank, routers RouterSource, self common.Address, log logger.LoggerInterface) *Swapper {
	return &Swapper{
		bank:    bank,
		routers: routers,
		self:    self,
		log:     log,
	}
}

// ExecuteHop runs one swap step with amountIn of step.TokenIn. The router is
// granted an allowance of exactly amountIn, and the allowance is reset to
// zero before returning on every path, success or failure. Returns the
// measured output.
func (s *Swapper) ExecuteHop(ctx context.Context, step domain.SwapStep, amountIn *big.Int, deadline time.Time) (*big.Int, error) {
	router, ok := s.routers.Resolve(step.Router)
	if !ok {
		return nil, apperror.New(apperror.CodeRouterNotApproved,
			apperror.WithContext(fmt.Sprintf("router=%s", step.Router.Hex())))
	}

	if err := s.bank.Approve(ctx, step.TokenIn, s.self, step.Router, amountIn); err != nil {
		return nil, apperror.New(apperror.CodeSwapFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("router=%s approve", step.Router.Hex())))
	}
	defer func() {
		if err := s.bank.Approve(ctx, step.TokenIn, s.self, step.Router, big.NewInt(0)); err != nil {
			s.log.Warn(ctx, "failed to reset router allowance",
				"router", step.Router.Hex(),
				"token", step.TokenIn.Hex(),
				"error", err)
		}
	}()

	before := s.bank.BalanceOf(step.TokenOut, s.self)

	claimed, err := router.SwapExactInput(ctx, step.TokenIn, step.TokenOut, amountIn, step.MinOutput, s.self, deadline)
	if err != nil {
		return nil, apperror.New(apperror.CodeSwapFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("router=%s %s->%s",
				step.Router.Hex(), step.TokenIn.Hex(), step.TokenOut.Hex())))
	}

	after := s.bank.BalanceOf(step.TokenOut, s.self)
	measured := new(big.Int).Sub(after, before)

	if claimed != nil && claimed.Cmp(measured) != 0 {
		s.log.Warn(ctx, "router claimed output differs from measured delta",
			"router", step.Router.Hex(),
			"claimed", claimed.String(),
			"measured", measured.String())
	}

	if measured.Cmp(step.MinOutput) < 0 {
		return nil, apperror.New(apperror.CodeInsufficientOutputAmount,
			apperror.WithContext(fmt.Sprintf("router=%s min=%s measured=%s",
				step.Router.Hex(), bigString(step.MinOutput), measured)))
	}

	return measured, nil
}

// ExecutePath runs every hop left to right, feeding each hop's measured
// output into the next. Returns the final measured output in the path's
// terminal asset.
func (s *Swapper) ExecutePath(ctx context.Context, path domain.SwapPath, amountIn *big.Int, deadline time.Time) (*big.Int, error) {
	amount := new(big.Int).Set(amountIn)
	for i, step := range path {
		out, err := s.ExecuteHop(ctx, step, amount, deadline)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.GetCode(err), fmt.Sprintf("hop=%d", i))
		}
		amount = out
	}
	return amount, nil
}
