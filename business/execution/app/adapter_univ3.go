package app

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

// flashCallbackArgs is the ABI layout of the per-call context the tiered
// adapter threads through the provider's opaque data argument. A pool-keyed
// provider must not assume only one loan is ever in flight, so nothing about
// the order lives in shared adapter state.
var flashCallbackArgs = mustCallbackArgs()

func mustCallbackArgs() abi.Arguments {
	addressTy, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressArrTy, err := abi.NewType("address[]", "", nil)
	if err != nil {
		panic(err)
	}
	uint256ArrTy, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}

	return abi.Arguments{
		{Name: "pool", Type: addressTy},
		{Name: "asset", Type: addressTy},
		{Name: "amount", Type: uint256Ty},
		{Name: "minProfit", Type: uint256Ty},
		{Name: "deadline", Type: uint256Ty},
		{Name: "routers", Type: addressArrTy},
		{Name: "tokensIn", Type: addressArrTy},
		{Name: "tokensOut", Type: addressArrTy},
		{Name: "minOutputs", Type: uint256ArrTy},
	}
}

// UniV3Adapter borrows from whitelisted dual-asset fee-tiered pools. Every
// pool is re-verified against the canonical factory before the borrow and
// again inside the callback: the whitelist says the owner trusts the
// address, the factory proves the address is the registered pool for its
// (token0, token1, feeTier) triple.
type UniV3Adapter struct {
	pools   PoolSource
	factory PoolFactory
	proc    *LoanProcessor
	log     logger.LoggerInterface

	// loans counts outstanding borrows keyed by nothing but their own call
	// frames; the callback accepts only while at least one is in flight.
	loans  atomic.Int64
	profit *big.Int
}

var _ ProviderAdapter = (*UniV3Adapter)(nil)
var _ TieredFlashReceiver = (*UniV3Adapter)(nil)

// NewUniV3Adapter creates the adapter over the whitelisted pool source and
// the canonical factory.
func NewUniV3Adapter(pools PoolSource, factory PoolFactory, proc *LoanProcessor, log logger.LoggerInterface) *UniV3Adapter {
	return &UniV3Adapter{pools: pools, factory: factory, proc: proc, log: log}
}

func (a *UniV3Adapter) Name() string { return ProviderUniV3 }

// QuoteFee returns amount * feeTier / 1_000_000 for the order's pool, the
// fee tier being expressed in hundredths of a basis point.
func (a *UniV3Adapter) QuoteFee(order domain.BorrowOrder) (*big.Int, error) {
	if order.Amount == nil {
		return nil, apperror.New(apperror.CodeInvalidAmount)
	}

	pool, ok := a.pools.Resolve(order.Pool)
	if !ok {
		return nil, apperror.New(apperror.CodePoolNotApproved,
			apperror.WithContext(fmt.Sprintf("pool=%s", order.Pool.Hex())))
	}

	fee := new(big.Int).Mul(order.Amount, new(big.Int).SetUint64(uint64(pool.FeeTier())))
	return fee.Div(fee, big.NewInt(1_000_000)), nil
}

// Borrow verifies the pool, encodes the order into the callback data and
// requests the flash from whichever side of the pool holds the asset.
func (a *UniV3Adapter) Borrow(ctx context.Context, order domain.BorrowOrder) (*big.Int, error) {
	pool, err := a.verifiedPool(order.Pool)
	if err != nil {
		return nil, err
	}

	var amount0, amount1 *big.Int
	switch order.Asset {
	case pool.Token0():
		amount0, amount1 = order.Amount, big.NewInt(0)
	case pool.Token1():
		amount0, amount1 = big.NewInt(0), order.Amount
	default:
		return nil, apperror.New(apperror.CodePoolAssetMismatch,
			apperror.WithContext(fmt.Sprintf("asset=%s pool=%s", order.Asset.Hex(), order.Pool.Hex())))
	}

	data, err := encodeFlashContext(order)
	if err != nil {
		return nil, apperror.New(apperror.CodeFlashLoanFailed, apperror.WithCause(err))
	}

	self := a.proc.Self()

	a.loans.Add(1)
	defer a.loans.Add(-1)
	a.profit = nil

	if err := pool.Flash(ctx, self, a, amount0, amount1, data); err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeFlashLoanFailed, apperror.WithCause(err))
	}

	if a.profit == nil {
		return nil, apperror.New(apperror.CodeFlashLoanFailed,
			apperror.WithContext("callback never ran"))
	}
	return a.profit, nil
}

// FlashCallback is the pool callback. The full order context arrives in
// data rather than adapter state; the pool is re-verified against both the
// whitelist and the factory before any economic logic, and the unborrowed
// side's fee must be zero.
func (a *UniV3Adapter) FlashCallback(ctx context.Context, caller common.Address, fee0, fee1 *big.Int, data []byte) error {
	if a.loans.Load() == 0 {
		return apperror.New(apperror.CodeFlashLoanNotActive)
	}

	order, err := decodeFlashContext(data)
	if err != nil {
		return apperror.New(apperror.CodeFlashLoanFailed, apperror.WithCause(err))
	}

	if caller != order.Pool {
		return apperror.New(apperror.CodeInvalidFlashLoanCaller,
			apperror.WithContext(fmt.Sprintf("caller=%s pool=%s", caller.Hex(), order.Pool.Hex())))
	}

	pool, err := a.verifiedPool(order.Pool)
	if err != nil {
		return err
	}

	var fee, otherFee *big.Int
	switch order.Asset {
	case pool.Token0():
		fee, otherFee = fee0, fee1
	case pool.Token1():
		fee, otherFee = fee1, fee0
	default:
		return apperror.New(apperror.CodePoolAssetMismatch,
			apperror.WithContext(fmt.Sprintf("asset=%s", order.Asset.Hex())))
	}
	if fee == nil {
		fee = big.NewInt(0)
	}
	if otherFee != nil && otherFee.Sign() != 0 {
		return apperror.New(apperror.CodeUnexpectedFlashLoanFee,
			apperror.WithContext(fmt.Sprintf("unborrowed_fee=%s", otherFee)))
	}

	profit, err := a.proc.CompleteLoan(ctx, order, fee)
	if err != nil {
		return err
	}

	owed := new(big.Int).Add(order.Amount, fee)
	if err := a.proc.Repay(ctx, order.Asset, order.Pool, owed); err != nil {
		return err
	}

	a.profit = profit
	return nil
}

// verifiedPool resolves a whitelisted pool and re-verifies it against the
// canonical factory for its (token0, token1, feeTier) triple.
func (a *UniV3Adapter) verifiedPool(addr common.Address) (TieredPool, error) {
	pool, ok := a.pools.Resolve(addr)
	if !ok {
		return nil, apperror.New(apperror.CodePoolNotApproved,
			apperror.WithContext(fmt.Sprintf("pool=%s", addr.Hex())))
	}

	canonical := a.factory.GetPool(pool.Token0(), pool.Token1(), pool.FeeTier())
	if canonical != addr {
		return nil, apperror.New(apperror.CodePoolNotFromFactory,
			apperror.WithContext(fmt.Sprintf("pool=%s canonical=%s", addr.Hex(), canonical.Hex())))
	}

	return pool, nil
}

func encodeFlashContext(order domain.BorrowOrder) ([]byte, error) {
	routers := make([]common.Address, len(order.Path))
	tokensIn := make([]common.Address, len(order.Path))
	tokensOut := make([]common.Address, len(order.Path))
	minOutputs := make([]*big.Int, len(order.Path))
	for i, step := range order.Path {
		routers[i] = step.Router
		tokensIn[i] = step.TokenIn
		tokensOut[i] = step.TokenOut
		minOutputs[i] = step.MinOutput
	}

	minProfit := order.MinProfit
	if minProfit == nil {
		minProfit = big.NewInt(0)
	}

	return flashCallbackArgs.Pack(
		order.Pool,
		order.Asset,
		order.Amount,
		minProfit,
		big.NewInt(order.Deadline.Unix()),
		routers,
		tokensIn,
		tokensOut,
		minOutputs,
	)
}

func decodeFlashContext(data []byte) (domain.BorrowOrder, error) {
	vals, err := flashCallbackArgs.Unpack(data)
	if err != nil {
		return domain.BorrowOrder{}, err
	}

	pool := vals[0].(common.Address)
	asset := vals[1].(common.Address)
	amount := vals[2].(*big.Int)
	minProfit := vals[3].(*big.Int)
	deadline := vals[4].(*big.Int)
	routers := vals[5].([]common.Address)
	tokensIn := vals[6].([]common.Address)
	tokensOut := vals[7].([]common.Address)
	minOutputs := vals[8].([]*big.Int)

	if len(routers) != len(tokensIn) || len(routers) != len(tokensOut) || len(routers) != len(minOutputs) {
		return domain.BorrowOrder{}, fmt.Errorf("ragged path arrays in flash context")
	}

	path := make(domain.SwapPath, len(routers))
	for i := range routers {
		path[i] = domain.SwapStep{
			Router:    routers[i],
			TokenIn:   tokensIn[i],
			TokenOut:  tokensOut[i],
			MinOutput: minOutputs[i],
		}
	}

	return domain.BorrowOrder{
		Asset:     asset,
		Amount:    amount,
		Path:      path,
		MinProfit: minProfit,
		Deadline:  time.Unix(deadline.Int64(), 0),
		Pool:      pool,
	}, nil
}
