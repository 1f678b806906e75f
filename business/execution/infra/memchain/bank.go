// Package memchain provides in-memory implementations of the execution
// context's collaborator ports: the token bank, swap routers, the four
// flash-loan providers and the pool factory. Providers verify repayment the
// way their on-chain counterparts do.
package memchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
)

// Bank is the in-memory balance and allowance store every party transacts
// against. Snapshot and Restore give callers transactional rollback.
type Bank struct {
	mu sync.Mutex
	// token -> holder -> balance
	balances map[common.Address]map[common.Address]*big.Int
	// token -> owner -> spender -> allowance
	allowances map[common.Address]map[common.Address]map[common.Address]*big.Int
}

var _ app.TokenBank = (*Bank)(nil)

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits amount of token to holder out of thin air. Seeding only.
func (b *Bank) Mint(token, holder common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(token, holder, amount)
}

// BalanceOf returns a copy of holder's balance of token.
func (b *Bank) BalanceOf(token, holder common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if hs, ok := b.balances[token]; ok {
		if bal, ok := hs[holder]; ok {
			return new(big.Int).Set(bal)
		}
	}
	return big.NewInt(0)
}

// Allowance returns a copy of the allowance owner has granted spender.
func (b *Bank) Allowance(token, owner, spender common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.allowance(token, owner, spender))
}

// Transfer moves amount of token from one holder to another.
func (b *Bank) Transfer(_ context.Context, token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transfer: invalid amount")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.debit(token, from, amount); err != nil {
		return err
	}
	b.credit(token, to, amount)
	return nil
}

// Approve sets spender's allowance over owner's token to exactly amount.
func (b *Bank) Approve(_ context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("approve: invalid amount")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	os, ok := b.allowances[token]
	if !ok {
		os = make(map[common.Address]map[common.Address]*big.Int)
		b.allowances[token] = os
	}
	ss, ok := os[owner]
	if !ok {
		ss = make(map[common.Address]*big.Int)
		os[owner] = ss
	}
	ss[spender] = new(big.Int).Set(amount)
	return nil
}

// TransferFrom moves amount of token from from to to, spending spender's
// allowance.
func (b *Bank) TransferFrom(_ context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transferFrom: invalid amount")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	allowed := b.allowance(token, from, spender)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("transferFrom: allowance %s below %s", allowed, amount)
	}

	if err := b.debit(token, from, amount); err != nil {
		return err
	}
	b.credit(token, to, amount)
	allowed.Sub(allowed, amount)
	return nil
}

type bankSnapshot struct {
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]map[common.Address]*big.Int
}

// Snapshot captures the full bank state. The returned snapshot can be
// restored any number of times.
func (b *Bank) Snapshot() app.BankSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return &bankSnapshot{
		balances:   copyBalances(b.balances),
		allowances: copyAllowances(b.allowances),
	}
}

// Restore replaces the bank state with a copy of the snapshot.
func (b *Bank) Restore(snap app.BankSnapshot) error {
	s, ok := snap.(*bankSnapshot)
	if !ok {
		return fmt.Errorf("restore: foreign snapshot %T", snap)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances = copyBalances(s.balances)
	b.allowances = copyAllowances(s.allowances)
	return nil
}

func (b *Bank) credit(token, holder common.Address, amount *big.Int) {
	hs, ok := b.balances[token]
	if !ok {
		hs = make(map[common.Address]*big.Int)
		b.balances[token] = hs
	}
	if bal, ok := hs[holder]; ok {
		bal.Add(bal, amount)
	} else {
		hs[holder] = new(big.Int).Set(amount)
	}
}

func (b *Bank) debit(token, holder common.Address, amount *big.Int) error {
	hs, ok := b.balances[token]
	if !ok {
		return fmt.Errorf("transfer: %s holds no %s", holder.Hex(), token.Hex())
	}
	bal, ok := hs[holder]
	if !ok || bal.Cmp(amount) < 0 {
		return fmt.Errorf("transfer: %s balance below %s", holder.Hex(), amount)
	}
	bal.Sub(bal, amount)
	return nil
}

func (b *Bank) allowance(token, owner, spender common.Address) *big.Int {
	if os, ok := b.allowances[token]; ok {
		if ss, ok := os[owner]; ok {
			if a, ok := ss[spender]; ok {
				return a
			}
		}
	}
	return big.NewInt(0)
}

func copyBalances(src map[common.Address]map[common.Address]*big.Int) map[common.Address]map[common.Address]*big.Int {
	dst := make(map[common.Address]map[common.Address]*big.Int, len(src))
	for token, hs := range src {
		ch := make(map[common.Address]*big.Int, len(hs))
		for holder, bal := range hs {
			ch[holder] = new(big.Int).Set(bal)
		}
		dst[token] = ch
	}
	return dst
}

func copyAllowances(src map[common.Address]map[common.Address]map[common.Address]*big.Int) map[common.Address]map[common.Address]map[common.Address]*big.Int {
	dst := make(map[common.Address]map[common.Address]map[common.Address]*big.Int, len(src))
	for token, os := range src {
		co := make(map[common.Address]map[common.Address]*big.Int, len(os))
		for owner, ss := range os {
			cs := make(map[common.Address]*big.Int, len(ss))
			for spender, a := range ss {
				cs[spender] = new(big.Int).Set(a)
			}
			co[owner] = cs
		}
		dst[token] = co
	}
	return dst
}
