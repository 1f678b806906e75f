package app

import (
	"context"
	"math/big"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/circuitbreaker"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/ratelimit"
)

// Simulator estimates the profit of an arbitrage without mutating any state,
// using each router's query capability. It exists so callers can cheaply
// probe viability: any structural problem - malformed path, a failing or
// lying quote, an intermediate-asset cycle - yields a zero-profit estimate
// instead of an error.
type Simulator struct {
	routers RouterSource
	breaker *circuitbreaker.CircuitBreaker[*big.Int]
	limiter *ratelimit.Limiter
	log     logger.LoggerInterface
}

// NewSimulator creates a simulator. Quote calls run through a circuit
// breaker and are rate limited so a probing caller cannot hammer routers.
func NewSimulator(routers RouterSource, limiter *ratelimit.Limiter, log logger.LoggerInterface) *Simulator {
	return &Simulator{
		routers: routers,
		breaker: circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("router-quotes")),
		limiter: limiter,
		log:     log,
	}
}

// CalculateExpectedProfit dry-runs the order's path against router quotes
// and subtracts the adapter's fee. The returned estimate carries zero profit
// whenever the path is structurally unusable or any quote fails.
func (s *Simulator) CalculateExpectedProfit(ctx context.Context, order domain.BorrowOrder, adapter ProviderAdapter) domain.ProfitEstimate {
	fee, err := adapter.QuoteFee(order)
	if err != nil {
		s.log.Debug(ctx, "fee quote failed during simulation", "provider", adapter.Name(), "error", err)
		return domain.ZeroEstimate(nil)
	}

	if order.Amount == nil || order.Amount.Sign() <= 0 {
		return domain.ZeroEstimate(fee)
	}
	if len(order.Path) == 0 || len(order.Path) > domain.MaxHops {
		return domain.ZeroEstimate(fee)
	}
	if !order.Path.IsContinuous() || !order.Path.IsRoundTrip(order.Asset) {
		return domain.ZeroEstimate(fee)
	}
	// Conservative: a path that legitimately revisits an intermediate asset
	// is also treated as non-viable.
	if order.Path.HasIntermediateCycle() {
		return domain.ZeroEstimate(fee)
	}

	amount := new(big.Int).Set(order.Amount)
	for _, step := range order.Path {
		router, ok := s.routers.Resolve(step.Router)
		if !ok {
			return domain.ZeroEstimate(fee)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return domain.ZeroEstimate(fee)
		}

		in := new(big.Int).Set(amount)
		out, err := s.breaker.Execute(func() (*big.Int, error) {
			return router.QueryAmountOut(ctx, step.TokenIn, step.TokenOut, in)
		})
		if err != nil || out == nil || out.Sign() <= 0 {
			s.log.Debug(ctx, "quote probe failed",
				"router", step.Router.Hex(),
				"error", err)
			return domain.ZeroEstimate(fee)
		}
		amount = out
	}

	owed := new(big.Int).Add(order.Amount, fee)
	profit := new(big.Int).Sub(amount, owed)
	if profit.Sign() <= 0 {
		return domain.ZeroEstimate(fee)
	}

	return domain.ProfitEstimate{
		ExpectedProfit: profit,
		FlashLoanFee:   new(big.Int).Set(fee),
	}
}
