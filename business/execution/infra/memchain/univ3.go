package memchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
)

// TieredPool is one in-memory dual-asset flash pool. It lends either or
// both of its tokens and charges each side amount * feeTier / 1_000_000.
type TieredPool struct {
	addr    common.Address
	token0  common.Address
	token1  common.Address
	feeTier uint32
	bank    *Bank
}

var _ app.TieredPool = (*TieredPool)(nil)

// NewTieredPool creates a pool at addr over the (token0, token1, feeTier)
// triple.
func NewTieredPool(addr, token0, token1 common.Address, feeTier uint32, bank *Bank) *TieredPool {
	return &TieredPool{
		addr:    addr,
		token0:  token0,
		token1:  token1,
		feeTier: feeTier,
		bank:    bank,
	}
}

func (p *TieredPool) Address() common.Address { return p.addr }
func (p *TieredPool) Token0() common.Address  { return p.token0 }
func (p *TieredPool) Token1() common.Address  { return p.token1 }
func (p *TieredPool) FeeTier() uint32         { return p.feeTier }

func (p *TieredPool) fee(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0)
	}
	f := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(p.feeTier)))
	return f.Div(f, big.NewInt(1_000_000))
}

// Flash lends amount0 of token0 and amount1 of token1 to initiator, invokes
// the recipient callback with both fees, then verifies each side came back
// with its fee on top.
func (p *TieredPool) Flash(ctx context.Context, initiator common.Address, recipient app.TieredFlashReceiver, amount0, amount1 *big.Int, data []byte) error {
	if amount0 == nil {
		amount0 = big.NewInt(0)
	}
	if amount1 == nil {
		amount1 = big.NewInt(0)
	}
	if amount0.Sign() == 0 && amount1.Sign() == 0 {
		return fmt.Errorf("tiered pool: nothing requested")
	}

	fee0 := p.fee(amount0)
	fee1 := p.fee(amount1)

	before0 := p.bank.BalanceOf(p.token0, p.addr)
	before1 := p.bank.BalanceOf(p.token1, p.addr)
	if before0.Cmp(amount0) < 0 || before1.Cmp(amount1) < 0 {
		return fmt.Errorf("tiered pool: insufficient liquidity")
	}

	if amount0.Sign() > 0 {
		if err := p.bank.Transfer(ctx, p.token0, p.addr, initiator, amount0); err != nil {
			return err
		}
	}
	if amount1.Sign() > 0 {
		if err := p.bank.Transfer(ctx, p.token1, p.addr, initiator, amount1); err != nil {
			return err
		}
	}

	if err := recipient.FlashCallback(ctx, p.addr, fee0, fee1, data); err != nil {
		return err
	}

	want0 := new(big.Int).Add(before0, fee0)
	want1 := new(big.Int).Add(before1, fee1)
	if p.bank.BalanceOf(p.token0, p.addr).Cmp(want0) < 0 {
		return fmt.Errorf("tiered pool: %s not repaid", p.token0.Hex())
	}
	if p.bank.BalanceOf(p.token1, p.addr).Cmp(want1) < 0 {
		return fmt.Errorf("tiered pool: %s not repaid", p.token1.Hex())
	}
	return nil
}

type poolKey struct {
	token0  common.Address
	token1  common.Address
	feeTier uint32
}

// Factory is the canonical registry of tiered pools, keyed by their
// (token0, token1, feeTier) triple.
type Factory struct {
	mu    sync.RWMutex
	pools map[poolKey]common.Address
}

var _ app.PoolFactory = (*Factory)(nil)

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{pools: make(map[poolKey]common.Address)}
}

// Register records pool as the canonical instance for its triple.
func (f *Factory) Register(pool app.TieredPool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pools[poolKey{pool.Token0(), pool.Token1(), pool.FeeTier()}] = pool.Address()
}

// GetPool returns the canonical pool for the triple, or the zero address.
func (f *Factory) GetPool(token0, token1 common.Address, feeTier uint32) common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pools[poolKey{token0, token1, feeTier}]
}
