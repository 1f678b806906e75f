package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

// BorrowerReturnValue is the acknowledgement hash the lender requires from
// OnFlashLoan before collecting repayment.
var BorrowerReturnValue = [32]byte(crypto.Keccak256([]byte("ERC3156FlashBorrower.onFlashLoan")))

// LenderAdapter borrows from the standardized single-asset pull-model
// provider. Unlike the push providers, repayment here is an allowance: the
// lender collects amount plus fee via TransferFrom after the callback
// returns the acknowledgement hash.
type LenderAdapter struct {
	lender FlashLender
	proc   *LoanProcessor
	log    logger.LoggerInterface

	fctx   domain.FlashLoanContext
	profit *big.Int
}

var _ ProviderAdapter = (*LenderAdapter)(nil)
var _ FlashBorrower = (*LenderAdapter)(nil)

// NewLenderAdapter creates the adapter against the given lender.
func NewLenderAdapter(lender FlashLender, proc *LoanProcessor, log logger.LoggerInterface) *LenderAdapter {
	return &LenderAdapter{lender: lender, proc: proc, log: log}
}

func (a *LenderAdapter) Name() string { return ProviderLender }

// QuoteFee asks the lender for its fee on the order's amount.
func (a *LenderAdapter) QuoteFee(order domain.BorrowOrder) (*big.Int, error) {
	if order.Amount == nil {
		return nil, apperror.New(apperror.CodeInvalidAmount)
	}
	return a.lender.FlashFee(order.Asset, order.Amount)
}

// Borrow arms the flash context and requests the loan.
func (a *LenderAdapter) Borrow(ctx context.Context, order domain.BorrowOrder) (*big.Int, error) {
	self := a.proc.Self()

	a.fctx.Arm(a.lender.Address(), self, order)
	defer a.fctx.Disarm()
	a.profit = nil

	if err := a.lender.FlashLoan(ctx, self, a, order.Asset, order.Amount, nil); err != nil {
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

// OnFlashLoan is the lender callback. After the swap path completes, the
// lender is granted an allowance of exactly amount plus fee so it can pull
// repayment, and the acknowledgement hash is returned.
func (a *LenderAdapter) OnFlashLoan(ctx context.Context, caller, initiator, token common.Address, amount, fee *big.Int, data []byte) ([32]byte, error) {
	var zero [32]byte

	if !a.fctx.Active() {
		return zero, apperror.New(apperror.CodeFlashLoanNotActive)
	}
	if caller != a.fctx.ExpectedCaller() {
		return zero, apperror.New(apperror.CodeInvalidFlashLoanCaller,
			apperror.WithContext(fmt.Sprintf("caller=%s", caller.Hex())))
	}
	if initiator != a.fctx.ExpectedInitiator() {
		return zero, apperror.New(apperror.CodeInvalidFlashLoanInitiator,
			apperror.WithContext(fmt.Sprintf("initiator=%s", initiator.Hex())))
	}

	order := a.fctx.Order()
	if token != order.Asset || amount.Cmp(order.Amount) != 0 {
		return zero, apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContext("delivered loan does not match the requested one"))
	}

	profit, err := a.proc.CompleteLoan(ctx, order, fee)
	if err != nil {
		return zero, err
	}

	self := a.proc.Self()
	owed := new(big.Int).Add(amount, fee)

	if a.proc.Bank().BalanceOf(token, self).Cmp(owed) < 0 {
		return zero, apperror.New(apperror.CodeRepaymentFailed,
			apperror.WithContext(fmt.Sprintf("owed=%s", owed)))
	}
	if err := a.proc.Bank().Approve(ctx, token, self, a.lender.Address(), owed); err != nil {
		return zero, apperror.New(apperror.CodeRepaymentFailed, apperror.WithCause(err))
	}

	a.profit = profit
	return BorrowerReturnValue, nil
}
