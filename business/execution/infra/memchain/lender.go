package memchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
)

// Lender is the in-memory standardized pull-model flash loan provider. It
// requires the acknowledgement hash from the borrower callback and then
// collects amount plus fee through its allowance.
type Lender struct {
	addr   common.Address
	feeBps uint64
	bank   *Bank
}

var _ app.FlashLender = (*Lender)(nil)

// NewLender creates the provider at addr charging feeBps per loan.
func NewLender(addr common.Address, feeBps uint64, bank *Bank) *Lender {
	return &Lender{addr: addr, feeBps: feeBps, bank: bank}
}

func (l *Lender) Address() common.Address { return l.addr }

// FlashFee returns amount * feeBps / 10000.
func (l *Lender) FlashFee(_ common.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("lender: invalid amount")
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(l.feeBps))
	return fee.Div(fee, big.NewInt(10_000)), nil
}

// FlashLoan lends amount of token to initiator, requires the
// acknowledgement hash back, then pulls amount plus fee via TransferFrom.
func (l *Lender) FlashLoan(ctx context.Context, initiator common.Address, receiver app.FlashBorrower, token common.Address, amount *big.Int, data []byte) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("lender: invalid amount")
	}
	if l.bank.BalanceOf(token, l.addr).Cmp(amount) < 0 {
		return fmt.Errorf("lender: insufficient liquidity for %s", amount)
	}

	fee, err := l.FlashFee(token, amount)
	if err != nil {
		return err
	}

	if err := l.bank.Transfer(ctx, token, l.addr, initiator, amount); err != nil {
		return err
	}

	ack, err := receiver.OnFlashLoan(ctx, l.addr, initiator, token, amount, fee, data)
	if err != nil {
		return err
	}
	if ack != app.BorrowerReturnValue {
		return fmt.Errorf("lender: borrower did not acknowledge the loan")
	}

	owed := new(big.Int).Add(amount, fee)
	if err := l.bank.TransferFrom(ctx, token, l.addr, initiator, l.addr, owed); err != nil {
		return fmt.Errorf("lender: pull repayment failed: %w", err)
	}
	return nil
}
