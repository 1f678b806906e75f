package app_test

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
)

// brokenRouter fails every quote.
type brokenRouter struct {
	addr common.Address
}

func (r *brokenRouter) Address() common.Address { return r.addr }

func (r *brokenRouter) SwapExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOutMin *big.Int, recipient common.Address, deadline time.Time) (*big.Int, error) {
	return nil, fmt.Errorf("venue offline")
}

func (r *brokenRouter) QueryAmountOut(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	return nil, fmt.Errorf("venue offline")
}

func TestSimulator_ProfitableRoundTrip(t *testing.T) {
	f := newFixture(t)

	// Zero-fee provider: profit is the full 2% edge.
	adapter := vaultAdapterOf(t, f)
	est := f.simulator.CalculateExpectedProfit(f.ctx, f.order(units(10)), adapter)

	want := milliUnits(200)
	if est.ExpectedProfit.Cmp(want) != 0 {
		t.Errorf("expected profit = %s, want %s", est.ExpectedProfit, want)
	}
	if est.FlashLoanFee.Sign() != 0 {
		t.Errorf("fee = %s, want 0", est.FlashLoanFee)
	}
}

func TestSimulator_SubtractsProviderFee(t *testing.T) {
	f := newFixture(t)

	// 0.3% lender fee on 10 X = 0.03 X; profit 0.2 - 0.03 = 0.17 X.
	adapter := lenderAdapterOf(t, f)
	est := f.simulator.CalculateExpectedProfit(f.ctx, f.order(units(10)), adapter)

	if want := milliUnits(170); est.ExpectedProfit.Cmp(want) != 0 {
		t.Errorf("expected profit = %s, want %s", est.ExpectedProfit, want)
	}
	if want := milliUnits(30); est.FlashLoanFee.Cmp(want) != 0 {
		t.Errorf("fee = %s, want %s", est.FlashLoanFee, want)
	}
}

func TestSimulator_ZeroProfitOnStructuralFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, o *domain.BorrowOrder)
	}{
		{
			name: "empty_path",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path = domain.SwapPath{}
			},
		},
		{
			name: "not_a_round_trip",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[1].TokenOut = tokenZ
			},
		},
		{
			name: "zero_amount",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Amount = big.NewInt(0)
			},
		},
		{
			name: "unapproved_router",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[0].Router = common.HexToAddress("0x0000000000000000000000000000000000000bad")
			},
		},
		{
			name: "failing_quote",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				broken := &brokenRouter{addr: common.HexToAddress("0x0000000000000000000000000000000000000ec8")}
				if err := f.routers.Add(f.ctx, broken); err != nil {
					panic(err)
				}
				o.Path[0].Router = broken.addr
			},
		},
		{
			name: "intermediate_cycle",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				// X -> Y -> X -> Y -> X repeats Y before the last hop.
				hop := o.Path[0]
				back := o.Path[1]
				o.Path = domain.SwapPath{hop, back, hop, back}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			order := f.order(units(10))
			tt.mutate(f, &order)

			est := f.simulator.CalculateExpectedProfit(f.ctx, order, vaultAdapterOf(t, f))
			if est.ExpectedProfit.Sign() != 0 {
				t.Errorf("expected profit = %s, want 0", est.ExpectedProfit)
			}
		})
	}
}

func TestSimulator_DoesNotMutateState(t *testing.T) {
	f := newFixture(t)

	beforeA := f.bank.BalanceOf(tokenY, f.routerA.Address())
	beforeEngine := f.bank.BalanceOf(tokenX, engineAddr)

	f.simulator.CalculateExpectedProfit(f.ctx, f.order(units(10)), vaultAdapterOf(t, f))

	if got := f.bank.BalanceOf(tokenY, f.routerA.Address()); got.Cmp(beforeA) != 0 {
		t.Errorf("router reserve changed during a dry run")
	}
	if got := f.bank.BalanceOf(tokenX, engineAddr); got.Cmp(beforeEngine) != 0 {
		t.Errorf("engine balance changed during a dry run")
	}
}

func TestSimulator_UnprofitablePathYieldsZero(t *testing.T) {
	f := newFixture(t)

	// Shrink the edge below the 0.3% fee: Y -> X at exactly 50:100.
	f.routerB.SetRate(tokenY, tokenX, 50, 100)

	est := f.simulator.CalculateExpectedProfit(f.ctx, f.order(units(10)), lenderAdapterOf(t, f))
	if est.ExpectedProfit.Sign() != 0 {
		t.Errorf("expected profit = %s, want 0", est.ExpectedProfit)
	}
}
