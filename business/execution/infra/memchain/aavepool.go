package memchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
)

// AavePool is the in-memory premium-bearing flash loan provider. It pushes
// the loan to the initiator, invokes the receiver callback, and fails the
// whole call unless amount plus premium came back before the callback
// returned.
type AavePool struct {
	addr       common.Address
	premiumBps uint64
	bank       *Bank
}

var _ app.AavePool = (*AavePool)(nil)

// NewAavePool creates the provider at addr charging premiumBps per loan.
func NewAavePool(addr common.Address, premiumBps uint64, bank *Bank) *AavePool {
	return &AavePool{addr: addr, premiumBps: premiumBps, bank: bank}
}

func (p *AavePool) Address() common.Address { return p.addr }
func (p *AavePool) PremiumBps() uint64      { return p.premiumBps }

// FlashLoanSimple lends amount of asset to initiator for the duration of
// the receiver callback.
func (p *AavePool) FlashLoanSimple(ctx context.Context, initiator common.Address, receiver app.AaveFlashReceiver, asset common.Address, amount *big.Int, params []byte) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("aave pool: invalid amount")
	}
	if p.bank.BalanceOf(asset, p.addr).Cmp(amount) < 0 {
		return fmt.Errorf("aave pool: insufficient liquidity for %s", amount)
	}

	premium := new(big.Int).Mul(amount, new(big.Int).SetUint64(p.premiumBps))
	premium.Div(premium, big.NewInt(10_000))

	before := p.bank.BalanceOf(asset, p.addr)

	if err := p.bank.Transfer(ctx, asset, p.addr, initiator, amount); err != nil {
		return err
	}

	ok, err := receiver.ExecuteOperation(ctx, p.addr, asset, amount, premium, initiator, params)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aave pool: receiver rejected the operation")
	}

	// Repayment is pushed by the receiver; the pool just verifies it landed.
	want := new(big.Int).Add(before, premium)
	if p.bank.BalanceOf(asset, p.addr).Cmp(want) < 0 {
		return fmt.Errorf("aave pool: loan not repaid")
	}
	return nil
}
