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

// AaveAdapter borrows from the premium-bearing single-asset provider. The
// provider pushes the loan to the engine, invokes ExecuteOperation, and
// expects amount plus premium pushed back before the call returns.
type AaveAdapter struct {
	pool AavePool
	proc *LoanProcessor
	log  logger.LoggerInterface

	fctx   domain.FlashLoanContext
	profit *big.Int
}

var _ ProviderAdapter = (*AaveAdapter)(nil)
var _ AaveFlashReceiver = (*AaveAdapter)(nil)

// NewAaveAdapter creates the adapter against the given pool.
func NewAaveAdapter(pool AavePool, proc *LoanProcessor, log logger.LoggerInterface) *AaveAdapter {
	return &AaveAdapter{pool: pool, proc: proc, log: log}
}

func (a *AaveAdapter) Name() string { return ProviderAave }

// QuoteFee returns amount * premiumBps / 10000.
func (a *AaveAdapter) QuoteFee(order domain.BorrowOrder) (*big.Int, error) {
	if order.Amount == nil {
		return nil, apperror.New(apperror.CodeInvalidAmount)
	}
	fee := new(big.Int).Mul(order.Amount, new(big.Int).SetUint64(a.pool.PremiumBps()))
	return fee.Div(fee, big.NewInt(10_000)), nil
}

// Borrow arms the flash context and requests the loan. The provider calls
// ExecuteOperation synchronously; the realized profit it computed is
// returned once the provider call unwinds.
func (a *AaveAdapter) Borrow(ctx context.Context, order domain.BorrowOrder) (*big.Int, error) {
	self := a.proc.Self()

	a.fctx.Arm(a.pool.Address(), self, order)
	defer a.fctx.Disarm()
	a.profit = nil

	if err := a.pool.FlashLoanSimple(ctx, self, a, order.Asset, order.Amount, nil); err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeFlashLoanFailed, apperror.WithCause(err))
	}

	if a.profit == nil {
		return nil, apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContext("callback never ran"))
	}
	return a.profit, nil
}

// ExecuteOperation is the provider callback. Authorization first: the loan
// must be outstanding, the caller must be the pool, the initiator must be
// the engine itself. Only then does economic logic run.
func (a *AaveAdapter) ExecuteOperation(ctx context.Context, caller, asset common.Address, amount, premium *big.Int, initiator common.Address, params []byte) (bool, error) {
	if !a.fctx.Active() {
		return false, apperror.New(apperror.CodeFlashLoanNotActive)
	}
	if caller != a.fctx.ExpectedCaller() {
		return false, apperror.New(apperror.CodeInvalidFlashLoanCaller,
			apperror.WithContext(fmt.Sprintf("caller=%s", caller.Hex())))
	}
	if initiator != a.fctx.ExpectedInitiator() {
		return false, apperror.New(apperror.CodeInvalidFlashLoanInitiator,
			apperror.WithContext(fmt.Sprintf("initiator=%s", initiator.Hex())))
	}

	order := a.fctx.Order()
	if asset != order.Asset || amount.Cmp(order.Amount) != 0 {
		return false, apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContext("delivered loan does not match the requested one"))
	}

	profit, err := a.proc.CompleteLoan(ctx, order, premium)
	if err != nil {
		return false, err
	}

	owed := new(big.Int).Add(amount, premium)
	if err := a.proc.Repay(ctx, asset, a.pool.Address(), owed); err != nil {
		return false, err
	}

	a.profit = profit
	return true, nil
}
