package memchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
)

type pair struct {
	in  common.Address
	out common.Address
}

type rate struct {
	num *big.Int
	den *big.Int
}

// Router is an in-memory constant-rate swap venue. It pulls the input via
// its allowance, pays the output from its own reserves, and honestly
// reports the amount it paid.
type Router struct {
	mu    sync.Mutex
	addr  common.Address
	bank  *Bank
	rates map[pair]rate
}

var _ app.Router = (*Router)(nil)

// NewRouter creates a router at addr transacting against bank. Seed its
// reserves with bank.Mint and its rates with SetRate before use.
func NewRouter(addr common.Address, bank *Bank) *Router {
	return &Router{
		addr:  addr,
		bank:  bank,
		rates: make(map[pair]rate),
	}
}

func (r *Router) Address() common.Address { return r.addr }

// SetRate configures the tokenIn -> tokenOut conversion as num/den.
func (r *Router) SetRate(tokenIn, tokenOut common.Address, num, den int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[pair{tokenIn, tokenOut}] = rate{big.NewInt(num), big.NewInt(den)}
}

func (r *Router) quote(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	r.mu.Lock()
	rt, ok := r.rates[pair{tokenIn, tokenOut}]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("router %s: no market %s -> %s", r.addr.Hex(), tokenIn.Hex(), tokenOut.Hex())
	}

	out := new(big.Int).Mul(amountIn, rt.num)
	return out.Div(out, rt.den), nil
}

// SwapExactInput pulls amountIn of tokenIn from the recipient's allowance
// and pays the quoted output from the router's reserves.
func (r *Router) SwapExactInput(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOutMin *big.Int, recipient common.Address, deadline time.Time) (*big.Int, error) {
	if time.Now().After(deadline) {
		return nil, fmt.Errorf("router %s: deadline passed", r.addr.Hex())
	}

	out, err := r.quote(tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	if amountOutMin != nil && out.Cmp(amountOutMin) < 0 {
		return nil, fmt.Errorf("router %s: output %s below minimum %s", r.addr.Hex(), out, amountOutMin)
	}

	if err := r.bank.TransferFrom(ctx, tokenIn, r.addr, recipient, r.addr, amountIn); err != nil {
		return nil, err
	}
	if err := r.bank.Transfer(ctx, tokenOut, r.addr, recipient, out); err != nil {
		return nil, err
	}

	return out, nil
}

// QueryAmountOut quotes without touching any balance.
func (r *Router) QueryAmountOut(_ context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	return r.quote(tokenIn, tokenOut, amountIn)
}
