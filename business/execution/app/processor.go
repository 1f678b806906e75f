package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

// LoanProcessor is the shared body every adapter delegates to from inside
// its provider callback, once the callback identity has been authenticated:
// run the swap path, then enforce the profit floor. Repayment stays with the
// adapter because its shape differs per provider.
type LoanProcessor struct {
	swapper *Swapper
	bank    TokenBank
	params  ParamSource
	self    common.Address
	log     logger.LoggerInterface
}

// NewLoanProcessor creates the processor transacting as self.
func NewLoanProcessor(swapper *Swapper, bank TokenBank, params ParamSource, self common.Address, log logger.LoggerInterface) *LoanProcessor {
	return &LoanProcessor{
		swapper: swapper,
		bank:    bank,
		params:  params,
		self:    self,
		log:     log,
	}
}

// Self returns the engine identity the processor transacts as.
func (p *LoanProcessor) Self() common.Address {
	return p.self
}

// Bank returns the token bank.
func (p *LoanProcessor) Bank() TokenBank {
	return p.bank
}

// CompleteLoan executes the order's swap path with the borrowed amount and
// checks the realized surplus against max(order.MinProfit, configured
// minimum). The surplus must strictly exceed the floor. Returns the realized
// profit, net of the provider fee.
func (p *LoanProcessor) CompleteLoan(ctx context.Context, order domain.BorrowOrder, fee *big.Int) (*big.Int, error) {
	finalOut, err := p.swapper.ExecutePath(ctx, order.Path, order.Amount, order.Deadline)
	if err != nil {
		return nil, err
	}

	owed := new(big.Int).Add(order.Amount, fee)
	profit := new(big.Int).Sub(finalOut, owed)

	floor := new(big.Int).Set(p.params.MinimumProfit())
	if order.MinProfit != nil && order.MinProfit.Cmp(floor) > 0 {
		floor.Set(order.MinProfit)
	}

	if profit.Cmp(floor) <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientProfit,
			apperror.WithContext(fmt.Sprintf("profit=%s floor=%s", profit, floor)))
	}

	p.log.Debug(ctx, "swap path completed",
		"asset", order.Asset.Hex(),
		"borrowed", order.Amount.String(),
		"fee", fee.String(),
		"profit", profit.String())

	return profit, nil
}

// Repay pushes amount of token from the engine to recipient, verifying the
// engine actually holds it first.
func (p *LoanProcessor) Repay(ctx context.Context, token, recipient common.Address, amount *big.Int) error {
	if p.bank.BalanceOf(token, p.self).Cmp(amount) < 0 {
		return apperror.New(apperror.CodeRepaymentFailed,
			apperror.WithContext(fmt.Sprintf("token=%s owed=%s", token.Hex(), amount)))
	}
	if err := p.bank.Transfer(ctx, token, p.self, recipient, amount); err != nil {
		return apperror.New(apperror.CodeRepaymentFailed, apperror.WithCause(err))
	}
	return nil
}
