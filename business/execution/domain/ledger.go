package domain

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ProfitLedger tracks realized profit, cumulatively and per asset. Counters
// are monotonically non-decreasing and are mutated only after a verified
// profitable execution.
type ProfitLedger struct {
	mu      sync.RWMutex
	total   *big.Int
	byAsset map[common.Address]*big.Int
}

// NewProfitLedger creates an empty ledger.
func NewProfitLedger() *ProfitLedger {
	return &ProfitLedger{
		total:   big.NewInt(0),
		byAsset: make(map[common.Address]*big.Int),
	}
}

// Record adds a realized profit to the cumulative and per-asset counters.
// Non-positive amounts are ignored; a successful arbitrage always carries a
// strictly positive profit.
func (l *ProfitLedger) Record(asset common.Address, profit *big.Int) {
	if profit == nil || profit.Sign() <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.total.Add(l.total, profit)

	if cur, ok := l.byAsset[asset]; ok {
		cur.Add(cur, profit)
	} else {
		l.byAsset[asset] = new(big.Int).Set(profit)
	}
}

// Total returns a copy of the cumulative profit counter.
func (l *ProfitLedger) Total() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.total)
}

// ProfitOf returns a copy of the per-asset profit counter.
func (l *ProfitLedger) ProfitOf(asset common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cur, ok := l.byAsset[asset]; ok {
		return new(big.Int).Set(cur)
	}
	return big.NewInt(0)
}

// LedgerView is a point-in-time snapshot of the ledger with deep-copied
// values, safe to hand across API boundaries.
type LedgerView struct {
	Total   *big.Int
	ByAsset map[common.Address]*big.Int
}

// View returns a snapshot of the ledger.
func (l *ProfitLedger) View() LedgerView {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byAsset := make(map[common.Address]*big.Int, len(l.byAsset))
	for addr, v := range l.byAsset {
		byAsset[addr] = new(big.Int).Set(v)
	}

	return LedgerView{
		Total:   new(big.Int).Set(l.total),
		ByAsset: byAsset,
	}
}
