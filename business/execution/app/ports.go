// Package app contains application services and port definitions for the
// execution context: the validator, the swap helper, the simulator, the
// flash-loan adapters and the engine composition root.
package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
)

// Provider names for the built-in adapters.
const (
	ProviderAave   = "aave"
	ProviderVault  = "vault"
	ProviderLender = "eip3156"
	ProviderUniV3  = "univ3"
)

// Router is the swap venue collaborator. The engine never trusts the value a
// router returns from SwapExactInput; realized output is always measured as
// a balance delta.
type Router interface {
	Address() common.Address

	// SwapExactInput swaps amountIn of tokenIn for tokenOut, crediting the
	// recipient. The returned amount is the router's own claim.
	SwapExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOutMin *big.Int, recipient common.Address, deadline time.Time) (*big.Int, error)

	// QueryAmountOut quotes a swap without mutating any state.
	QueryAmountOut(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
}

// BankSnapshot is an opaque point-in-time capture of the token bank.
type BankSnapshot interface{}

// TokenBank is the balance and allowance store all parties transact
// against. Snapshot/Restore give the engine transactional rollback: a failed
// arbitrage restores the snapshot taken at entry, unwinding every
// provisional transfer.
type TokenBank interface {
	BalanceOf(token, holder common.Address) *big.Int
	Allowance(token, owner, spender common.Address) *big.Int

	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error

	Snapshot() BankSnapshot
	Restore(snap BankSnapshot) error
}

// AaveFlashReceiver is the callback contract of the premium-bearing
// single-asset provider. caller identifies the invoking party.
type AaveFlashReceiver interface {
	ExecuteOperation(ctx context.Context, caller, asset common.Address, amount, premium *big.Int, initiator common.Address, params []byte) (bool, error)
}

// AavePool is the premium-bearing single-asset flash loan provider.
type AavePool interface {
	Address() common.Address
	PremiumBps() uint64
	FlashLoanSimple(ctx context.Context, initiator common.Address, receiver AaveFlashReceiver, asset common.Address, amount *big.Int, params []byte) error
}

// VaultFlashReceiver is the callback contract of the zero-fee array-based
// vault provider.
type VaultFlashReceiver interface {
	ReceiveFlashLoan(ctx context.Context, caller common.Address, tokens []common.Address, amounts, feeAmounts []*big.Int, userData []byte) error
}

// FlashVault is the zero-fee array-based vault provider.
type FlashVault interface {
	Address() common.Address
	FlashLoan(ctx context.Context, initiator common.Address, recipient VaultFlashReceiver, tokens []common.Address, amounts []*big.Int, userData []byte) error
}

// FlashBorrower is the standardized pull-model callback contract. The
// returned hash must equal BorrowerReturnValue or the lender aborts.
type FlashBorrower interface {
	OnFlashLoan(ctx context.Context, caller, initiator, token common.Address, amount, fee *big.Int, data []byte) ([32]byte, error)
}

// FlashLender is the standardized single-asset pull-model provider. It
// collects amount+fee via TransferFrom after the callback returns.
type FlashLender interface {
	Address() common.Address
	FlashFee(token common.Address, amount *big.Int) (*big.Int, error)
	FlashLoan(ctx context.Context, initiator common.Address, receiver FlashBorrower, token common.Address, amount *big.Int, data []byte) error
}

// TieredFlashReceiver is the callback contract of the pool-fee-tiered
// provider. fee0/fee1 are owed on top of whichever amounts were borrowed.
type TieredFlashReceiver interface {
	FlashCallback(ctx context.Context, caller common.Address, fee0, fee1 *big.Int, data []byte) error
}

// TieredPool is one dual-asset pool of the fee-tiered provider. FeeTier is
// expressed in hundredths of a basis point.
type TieredPool interface {
	Address() common.Address
	Token0() common.Address
	Token1() common.Address
	FeeTier() uint32
	Flash(ctx context.Context, initiator common.Address, recipient TieredFlashReceiver, amount0, amount1 *big.Int, data []byte) error
}

// PoolFactory is the canonical factory used to re-verify that a whitelisted
// pool really is the registered pool for its (token0, token1, feeTier)
// triple. Returns the zero address for unknown triples.
type PoolFactory interface {
	GetPool(token0, token1 common.Address, feeTier uint32) common.Address
}

// RouterSource resolves whitelisted routers. Implemented by the venues
// registry.
type RouterSource interface {
	IsApproved(router common.Address) bool
	Resolve(router common.Address) (Router, bool)
}

// PoolSource resolves whitelisted flash pools. Implemented by the venues
// registry.
type PoolSource interface {
	IsApproved(pool common.Address) bool
	Resolve(pool common.Address) (TieredPool, bool)
}

// ParamSource exposes the owner-settable engine parameters the validator
// reads. Implemented by the treasury admin service.
type ParamSource interface {
	MinimumProfit() *big.Int
	DeadlineWindow() time.Duration
	Paused() bool
}

// ProviderAdapter is the capability set every flash-loan adapter implements:
// quote the provider's fee, and run one borrow-swap-repay cycle, returning
// the realized profit. The shared validate/swap/profit/ledger logic lives in
// the engine; only borrow, callback authentication, fee arithmetic and
// repayment vary per adapter.
type ProviderAdapter interface {
	Name() string
	QuoteFee(order domain.BorrowOrder) (*big.Int, error)
	Borrow(ctx context.Context, order domain.BorrowOrder) (*big.Int, error)
}

// Reporter receives completed execution reports.
type Reporter interface {
	Report(report *domain.ExecutionReport)
}
