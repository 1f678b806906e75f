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

// VaultAdapter borrows from the zero-fee array-based vault. The vault API
// takes token and amount arrays; this engine only ever borrows a single
// asset, so any callback carrying more than one entry is rejected. The
// loan-active flag is defense in depth against a direct, unsolicited
// invocation of ReceiveFlashLoan.
type VaultAdapter struct {
	vault FlashVault
	proc  *LoanProcessor
	log   logger.LoggerInterface

	fctx   domain.FlashLoanContext
	profit *big.Int
}

var _ ProviderAdapter = (*VaultAdapter)(nil)
var _ VaultFlashReceiver = (*VaultAdapter)(nil)

// NewVaultAdapter creates the adapter against the given vault.
func NewVaultAdapter(vault FlashVault, proc *LoanProcessor, log logger.LoggerInterface) *VaultAdapter {
	return &VaultAdapter{vault: vault, proc: proc, log: log}
}

func (a *VaultAdapter) Name() string { return ProviderVault }

// QuoteFee always returns zero; the vault charges nothing.
func (a *VaultAdapter) QuoteFee(order domain.BorrowOrder) (*big.Int, error) {
	if order.Amount == nil {
		return nil, apperror.New(apperror.CodeInvalidAmount)
	}
	return big.NewInt(0), nil
}

// Borrow arms the flash context and requests a single-asset loan.
func (a *VaultAdapter) Borrow(ctx context.Context, order domain.BorrowOrder) (*big.Int, error) {
	self := a.proc.Self()

	a.fctx.Arm(a.vault.Address(), self, order)
	defer a.fctx.Disarm()
	a.profit = nil

	tokens := []common.Address{order.Asset}
	amounts := []*big.Int{order.Amount}

	if err := a.vault.FlashLoan(ctx, self, a, tokens, amounts, nil); err != nil {
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

// ReceiveFlashLoan is the vault callback. The loan-active flag is checked
// before the caller identity so an unsolicited invocation fails closed.
func (a *VaultAdapter) ReceiveFlashLoan(ctx context.Context, caller common.Address, tokens []common.Address, amounts, feeAmounts []*big.Int, userData []byte) error {
	if !a.fctx.Active() {
		return apperror.New(apperror.CodeFlashLoanNotActive)
	}
	if caller != a.fctx.ExpectedCaller() {
		return apperror.New(apperror.CodeInvalidFlashLoanCaller,
			apperror.WithContext(fmt.Sprintf("caller=%s", caller.Hex())))
	}
	if len(tokens) != 1 || len(amounts) != 1 || len(feeAmounts) != 1 {
		return apperror.New(apperror.CodeMultiAssetNotSupported,
			apperror.WithContext(fmt.Sprintf("tokens=%d", len(tokens))))
	}

	order := a.fctx.Order()
	if tokens[0] != order.Asset || amounts[0].Cmp(order.Amount) != 0 {
		return apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContext("delivered loan does not match the requested one"))
	}
	if feeAmounts[0] != nil && feeAmounts[0].Sign() != 0 {
		return apperror.New(apperror.CodeUnexpectedFlashLoanFee,
			apperror.WithContext(fmt.Sprintf("fee=%s", feeAmounts[0])))
	}

	profit, err := a.proc.CompleteLoan(ctx, order, big.NewInt(0))
	if err != nil {
		return err
	}

	if err := a.proc.Repay(ctx, tokens[0], a.vault.Address(), amounts[0]); err != nil {
		return err
	}

	a.profit = profit
	return nil
}
