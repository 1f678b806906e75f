package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ExecutionReport is the arbitrage-completed notification emitted after a
// successful run.
type ExecutionReport struct {
	Provider       string
	Asset          common.Address
	AmountBorrowed *big.Int
	FlashLoanFee   *big.Int
	Profit         *big.Int
	Hops           int
	Pool           common.Address // zero unless the pool-fee-tiered provider ran
	Timestamp      time.Time
	Duration       time.Duration
}

// ProfitEstimate is the result of a dry-run probe. A zero ExpectedProfit
// means "not viable" - the simulator never distinguishes why.
type ProfitEstimate struct {
	ExpectedProfit *big.Int
	FlashLoanFee   *big.Int
}

// ZeroEstimate returns an estimate carrying zero profit and the given fee.
func ZeroEstimate(fee *big.Int) ProfitEstimate {
	if fee == nil {
		fee = big.NewInt(0)
	}
	return ProfitEstimate{
		ExpectedProfit: big.NewInt(0),
		FlashLoanFee:   new(big.Int).Set(fee),
	}
}
