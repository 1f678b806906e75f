package app

import (
	"fmt"
	"math/big"
	"time"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apperror"
)

// Validator runs the precondition checks every arbitrage request must pass
// before any loan is requested. It is pure: no side effects, no state
// mutation, checks applied strictly in order so the caller always sees the
// first failure.
type Validator struct {
	routers RouterSource
	params  ParamSource
	now     func() time.Time
}

// NewValidator creates a validator reading whitelists from routers and
// engine parameters from params.
func NewValidator(routers RouterSource, params ParamSource) *Validator {
	return &Validator{
		routers: routers,
		params:  params,
		now:     time.Now,
	}
}

// ValidateOrder checks the order against every precondition, in order:
// amount, deadline within the configured window, path length, start asset,
// continuity and round trip, router approval, slippage floors, pause state.
// Returns nil when the order is executable.
func (v *Validator) ValidateOrder(order domain.BorrowOrder) error {
	if order.Amount == nil || order.Amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(fmt.Sprintf("amount=%s", bigString(order.Amount))))
	}

	now := v.now()
	if order.Deadline.Before(now) {
		return apperror.New(apperror.CodeTransactionTooOld,
			apperror.WithContext(fmt.Sprintf("deadline=%s", order.Deadline.UTC().Format(time.RFC3339))))
	}
	if window := v.params.DeadlineWindow(); order.Deadline.After(now.Add(window)) {
		return apperror.New(apperror.CodeDeadlineTooFar,
			apperror.WithContext(fmt.Sprintf("deadline=%s window=%s",
				order.Deadline.UTC().Format(time.RFC3339), window)))
	}

	if len(order.Path) == 0 {
		return apperror.New(apperror.CodeEmptySwapPath)
	}
	if len(order.Path) > domain.MaxHops {
		return apperror.New(apperror.CodePathTooLong,
			apperror.WithContext(fmt.Sprintf("hops=%d max=%d", len(order.Path), domain.MaxHops)))
	}

	if order.Path[0].TokenIn != order.Asset {
		return apperror.New(apperror.CodeSwapPathAssetMismatch,
			apperror.WithContext(fmt.Sprintf("asset=%s first_token_in=%s",
				order.Asset.Hex(), order.Path[0].TokenIn.Hex())))
	}

	if !order.Path.IsContinuous() || !order.Path.IsRoundTrip(order.Asset) {
		return apperror.New(apperror.CodeInvalidSwapPath,
			apperror.WithContext(fmt.Sprintf("path=%s", order.Path)))
	}

	for i, step := range order.Path {
		if !v.routers.IsApproved(step.Router) {
			return apperror.New(apperror.CodeRouterNotApproved,
				apperror.WithContext(fmt.Sprintf("hop=%d router=%s", i, step.Router.Hex())))
		}
	}

	// A zero floor is an unbounded-slippage instruction, not "no preference".
	for i, step := range order.Path {
		if step.MinOutput == nil || step.MinOutput.Sign() <= 0 {
			return apperror.New(apperror.CodeInsufficientSlippageProtection,
				apperror.WithContext(fmt.Sprintf("hop=%d", i)))
		}
	}

	if v.params.Paused() {
		return apperror.New(apperror.CodeEnginePaused)
	}

	return nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
