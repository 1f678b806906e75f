package memchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
)

// Vault is the in-memory zero-fee array-based flash loan provider.
type Vault struct {
	addr common.Address
	bank *Bank
}

var _ app.FlashVault = (*Vault)(nil)

// NewVault creates the provider at addr.
func NewVault(addr common.Address, bank *Bank) *Vault {
	return &Vault{addr: addr, bank: bank}
}

func (v *Vault) Address() common.Address { return v.addr }

// FlashLoan lends every requested amount to initiator for the duration of
// the recipient callback and verifies each was returned in full. No fee.
func (v *Vault) FlashLoan(ctx context.Context, initiator common.Address, recipient app.VaultFlashReceiver, tokens []common.Address, amounts []*big.Int, userData []byte) error {
	if len(tokens) == 0 || len(tokens) != len(amounts) {
		return fmt.Errorf("vault: malformed request")
	}

	before := make([]*big.Int, len(tokens))
	fees := make([]*big.Int, len(tokens))
	for i, token := range tokens {
		if amounts[i] == nil || amounts[i].Sign() <= 0 {
			return fmt.Errorf("vault: invalid amount at %d", i)
		}
		before[i] = v.bank.BalanceOf(token, v.addr)
		if before[i].Cmp(amounts[i]) < 0 {
			return fmt.Errorf("vault: insufficient liquidity of %s", token.Hex())
		}
		fees[i] = big.NewInt(0)
	}

	for i, token := range tokens {
		if err := v.bank.Transfer(ctx, token, v.addr, initiator, amounts[i]); err != nil {
			return err
		}
	}

	if err := recipient.ReceiveFlashLoan(ctx, v.addr, tokens, amounts, fees, userData); err != nil {
		return err
	}

	for i, token := range tokens {
		if v.bank.BalanceOf(token, v.addr).Cmp(before[i]) < 0 {
			return fmt.Errorf("vault: loan of %s not repaid", token.Hex())
		}
	}
	return nil
}
