package app

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apm"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

// Engine is the composition root for arbitrage execution. One call runs the
// full cycle: guard, validate, snapshot, borrow through the chosen adapter,
// and on success record the profit and notify reporters. Any failure after
// the snapshot restores the bank to its pre-call state, so a failed
// arbitrage leaves no provisional transfer behind.
type Engine struct {
	validator *Validator
	simulator *Simulator
	bank      TokenBank
	ledger    *domain.ProfitLedger
	adapters  map[string]ProviderAdapter
	reporters []Reporter
	self      common.Address
	log       logger.LoggerInterface
	tracer    apm.Tracer

	// busy guards every mutating entry point: a nested call while one is in
	// flight fails instead of blocking.
	busy atomic.Bool

	execCounter  metric.Int64Counter
	failCounter  metric.Int64Counter
	profitHist   metric.Float64Histogram
	durationHist metric.Float64Histogram
}

// NewEngine creates the engine. Adapters register afterwards via
// RegisterAdapter.
func NewEngine(validator *Validator, simulator *Simulator, bank TokenBank, ledger *domain.ProfitLedger, self common.Address, log logger.LoggerInterface, reporters ...Reporter) (*Engine, error) {
	meter := otel.Meter("execution.engine")

	execCounter, err := meter.Int64Counter("arbitrage_executions_total",
		metric.WithDescription("Completed arbitrage executions"))
	if err != nil {
		return nil, err
	}

	failCounter, err := meter.Int64Counter("arbitrage_failures_total",
		metric.WithDescription("Failed arbitrage executions"))
	if err != nil {
		return nil, err
	}

	profitHist, err := meter.Float64Histogram("arbitrage_profit",
		metric.WithDescription("Realized profit per execution, raw units"))
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram("arbitrage_duration_seconds",
		metric.WithDescription("End-to-end execution duration"))
	if err != nil {
		return nil, err
	}

	return &Engine{
		validator:    validator,
		simulator:    simulator,
		bank:         bank,
		ledger:       ledger,
		adapters:     make(map[string]ProviderAdapter),
		reporters:    reporters,
		self:         self,
		log:          log,
		tracer:       apm.NewTracer("execution.engine"),
		execCounter:  execCounter,
		failCounter:  failCounter,
		profitHist:   profitHist,
		durationHist: durationHist,
	}, nil
}

// RegisterAdapter makes a flash-loan provider available by name.
func (e *Engine) RegisterAdapter(adapter ProviderAdapter) {
	e.adapters[adapter.Name()] = adapter
}

// Address returns the engine identity.
func (e *Engine) Address() common.Address {
	return e.self
}

// Ledger returns a point-in-time view of realized profit.
func (e *Engine) Ledger() domain.LedgerView {
	return e.ledger.View()
}

// ExecuteArbitrage runs one atomic arbitrage through the named provider.
// On success the returned report carries the realized profit; on any failure
// every provisional transfer is unwound and the named error is returned.
func (e *Engine) ExecuteArbitrage(ctx context.Context, provider string, order domain.BorrowOrder) (*domain.ExecutionReport, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeReentrantCall)
	}
	defer e.busy.Store(false)

	ctx, span := e.tracer.StartSpanFromContext(ctx, "engine.execute_arbitrage",
		trace.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("asset", order.Asset.Hex()),
			attribute.Int("hops", len(order.Path)),
		))
	defer span.End()

	start := time.Now()

	adapter, ok := e.adapters[provider]
	if !ok {
		err := apperror.New(apperror.CodeUnknownProvider,
			apperror.WithContext(fmt.Sprintf("provider=%s", provider)))
		span.NoticeError(err)
		return nil, err
	}

	if err := e.validator.ValidateOrder(order); err != nil {
		e.countFailure(ctx, provider, err)
		span.NoticeError(err)
		return nil, err
	}

	order = order.Clone()
	snap := e.bank.Snapshot()

	profit, err := adapter.Borrow(ctx, order)
	if err != nil {
		if rerr := e.bank.Restore(snap); rerr != nil {
			e.log.Error(ctx, "failed to restore bank snapshot", "error", rerr)
		}
		e.countFailure(ctx, provider, err)
		span.NoticeError(err)
		e.log.Warn(ctx, "arbitrage failed",
			"provider", provider,
			"asset", order.Asset.Hex(),
			"code", string(apperror.GetCode(err)),
			"error", err)
		return nil, err
	}

	e.ledger.Record(order.Asset, profit)

	fee, ferr := adapter.QuoteFee(order)
	if ferr != nil {
		fee = big.NewInt(0)
	}

	report := &domain.ExecutionReport{
		Provider:       provider,
		Asset:          order.Asset,
		AmountBorrowed: new(big.Int).Set(order.Amount),
		FlashLoanFee:   fee,
		Profit:         new(big.Int).Set(profit),
		Hops:           len(order.Path),
		Pool:           order.Pool,
		Timestamp:      time.Now(),
		Duration:       time.Since(start),
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("asset", order.Asset.Hex()),
	)
	e.execCounter.Add(ctx, 1, attrs)
	e.durationHist.Record(ctx, report.Duration.Seconds(), attrs)
	if f, _ := new(big.Float).SetInt(profit).Float64(); f > 0 {
		e.profitHist.Record(ctx, f, attrs)
	}

	e.log.Info(ctx, "arbitrage completed",
		"provider", provider,
		"asset", order.Asset.Hex(),
		"borrowed", order.Amount.String(),
		"profit", profit.String(),
		"hops", len(order.Path))

	for _, r := range e.reporters {
		r.Report(report)
	}

	return report, nil
}

// SimulateArbitrage dry-runs the order against the named provider without
// mutating any state. Unknown providers and structural failures yield a
// zero-profit estimate.
func (e *Engine) SimulateArbitrage(ctx context.Context, provider string, order domain.BorrowOrder) domain.ProfitEstimate {
	adapter, ok := e.adapters[provider]
	if !ok {
		return domain.ZeroEstimate(nil)
	}
	return e.simulator.CalculateExpectedProfit(ctx, order, adapter)
}

func (e *Engine) countFailure(ctx context.Context, provider string, err error) {
	e.failCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("code", string(apperror.GetCode(err))),
	))
}
