package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FlashLoanContext is the ephemeral, per-call state an adapter arms
// immediately before requesting a loan and consumes exactly once inside the
// provider callback. It is owned by a single adapter and mutated only on the
// single execution path that created it; it must never remain active once
// the call that created it has returned.
type FlashLoanContext struct {
	active            bool
	expectedCaller    common.Address
	expectedInitiator common.Address
	order             BorrowOrder
}

// Arm activates the context for one loan.
func (c *FlashLoanContext) Arm(expectedCaller, expectedInitiator common.Address, order BorrowOrder) {
	c.active = true
	c.expectedCaller = expectedCaller
	c.expectedInitiator = expectedInitiator
	c.order = order
}

// Disarm clears the context. Idempotent.
func (c *FlashLoanContext) Disarm() {
	*c = FlashLoanContext{}
}

// Active reports whether a loan armed through this context is outstanding.
func (c *FlashLoanContext) Active() bool {
	return c.active
}

// ExpectedCaller returns the provider address allowed to invoke the callback.
func (c *FlashLoanContext) ExpectedCaller() common.Address {
	return c.expectedCaller
}

// ExpectedInitiator returns the identity that requested the loan.
func (c *FlashLoanContext) ExpectedInitiator() common.Address {
	return c.expectedInitiator
}

// Order returns the borrow order the context was armed with.
func (c *FlashLoanContext) Order() BorrowOrder {
	return c.order
}

// BorrowOrder carries everything an adapter needs to run one arbitrage:
// what to borrow, how to route it, and the caller's profit floor.
type BorrowOrder struct {
	Asset     common.Address
	Amount    *big.Int
	Path      SwapPath
	MinProfit *big.Int
	Deadline  time.Time

	// Pool is only set for the pool-fee-tiered provider, which borrows
	// from a specific whitelisted pool rather than a singleton venue.
	Pool common.Address
}

// Clone returns a deep copy of the order.
func (o BorrowOrder) Clone() BorrowOrder {
	c := o
	if o.Amount != nil {
		c.Amount = new(big.Int).Set(o.Amount)
	}
	if o.MinProfit != nil {
		c.MinProfit = new(big.Int).Set(o.MinProfit)
	}
	c.Path = o.Path.Clone()
	return c
}
