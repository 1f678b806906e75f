package memchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NativeBank holds native-currency balances. Each recipient may declare a
// receive cost, the gas its acceptance logic needs; a stipend-bounded
// transfer fails when the forwarded stipend does not cover it.
type NativeBank struct {
	mu          sync.Mutex
	balances    map[common.Address]*big.Int
	receiveCost map[common.Address]uint64
}

// NewNativeBank creates an empty native bank.
func NewNativeBank() *NativeBank {
	return &NativeBank{
		balances:    make(map[common.Address]*big.Int),
		receiveCost: make(map[common.Address]uint64),
	}
}

// Deposit credits amount to holder. Seeding only.
func (n *NativeBank) Deposit(holder common.Address, amount *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if bal, ok := n.balances[holder]; ok {
		bal.Add(bal, amount)
	} else {
		n.balances[holder] = new(big.Int).Set(amount)
	}
}

// SetReceiveCost declares the gas holder's acceptance logic consumes.
func (n *NativeBank) SetReceiveCost(holder common.Address, gas uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receiveCost[holder] = gas
}

// NativeBalance returns a copy of holder's balance.
func (n *NativeBank) NativeBalance(holder common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if bal, ok := n.balances[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// TransferWithStipend moves amount from from to to, forwarding exactly
// stipend gas to the recipient. A recipient whose receive cost exceeds the
// stipend rejects the transfer; the caller reports the failure rather than
// retrying with more gas.
func (n *NativeBank) TransferWithStipend(_ context.Context, from, to common.Address, amount *big.Int, stipend uint64) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("native transfer: invalid amount")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	bal, ok := n.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		return fmt.Errorf("native transfer: %s balance below %s", from.Hex(), amount)
	}

	if cost, ok := n.receiveCost[to]; ok && cost > stipend {
		return fmt.Errorf("native transfer: recipient %s needs %d gas, stipend is %d", to.Hex(), cost, stipend)
	}

	bal.Sub(bal, amount)
	if cur, ok := n.balances[to]; ok {
		cur.Add(cur, amount)
	} else {
		n.balances[to] = new(big.Int).Set(amount)
	}
	return nil
}
