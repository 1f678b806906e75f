package app_test

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/business/execution/infra/memchain"
	venuesApp "github.com/fd1az/flasharb/business/venues/app"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/ratelimit"
)

var (
	tokenX = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenY = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	tokenZ = common.HexToAddress("0x00000000000000000000000000000000000000c3")

	engineAddr = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	aaveAddr   = common.HexToAddress("0x0000000000000000000000000000000000000aa1")
	vaultAddr  = common.HexToAddress("0x0000000000000000000000000000000000000bb1")
	lenderAddr = common.HexToAddress("0x0000000000000000000000000000000000000cc1")
	poolAddr   = common.HexToAddress("0x0000000000000000000000000000000000000dd1")
)

var oneUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), oneUnit)
}

// milliUnits returns n/1000 units.
func milliUnits(n int64) *big.Int {
	v := new(big.Int).Mul(big.NewInt(n), oneUnit)
	return v.Div(v, big.NewInt(1000))
}

type fakeParams struct {
	mu        sync.Mutex
	minProfit *big.Int
	window    time.Duration
	paused    bool
}

func (p *fakeParams) MinimumProfit() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.minProfit)
}

func (p *fakeParams) DeadlineWindow() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

func (p *fakeParams) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *fakeParams) setPaused(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = v
}

func (p *fakeParams) setWindow(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = d
}

// fixture wires a full in-memory market: two routers quoting a 2% round-trip
// edge on X/Y, all four flash-loan providers with liquidity, and the engine.
type fixture struct {
	ctx     context.Context
	log     *logger.Logger
	bank    *memchain.Bank
	routers *venuesApp.RouterRegistry
	pools   *venuesApp.PoolRegistry
	factory *memchain.Factory
	params  *fakeParams

	routerA *memchain.Router // X -> Y at 2:1
	routerB *memchain.Router // Y -> X at 51:100

	aave   *memchain.AavePool
	vault  *memchain.Vault
	lender *memchain.Lender
	pool   *memchain.TieredPool

	swapper   *app.Swapper
	proc      *app.LoanProcessor
	validator *app.Validator
	simulator *app.Simulator
	engine    *app.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	bank := memchain.NewBank()
	routers := venuesApp.NewRouterRegistry(20, log)
	pools := venuesApp.NewPoolRegistry(20, log)
	factory := memchain.NewFactory()

	routerA := memchain.NewRouter(common.HexToAddress("0x0000000000000000000000000000000000000ea1"), bank)
	routerA.SetRate(tokenX, tokenY, 2, 1)
	routerB := memchain.NewRouter(common.HexToAddress("0x0000000000000000000000000000000000000eb2"), bank)
	routerB.SetRate(tokenY, tokenX, 51, 100)

	bank.Mint(tokenY, routerA.Address(), units(1_000))
	bank.Mint(tokenX, routerB.Address(), units(1_000))

	if err := routers.Add(ctx, routerA); err != nil {
		t.Fatalf("approve routerA: %v", err)
	}
	if err := routers.Add(ctx, routerB); err != nil {
		t.Fatalf("approve routerB: %v", err)
	}

	aave := memchain.NewAavePool(aaveAddr, 9, bank)
	vault := memchain.NewVault(vaultAddr, bank)
	lender := memchain.NewLender(lenderAddr, 30, bank)
	pool := memchain.NewTieredPool(poolAddr, tokenX, tokenY, 3000, bank)

	bank.Mint(tokenX, aaveAddr, units(100))
	bank.Mint(tokenX, vaultAddr, units(100))
	bank.Mint(tokenX, lenderAddr, units(100))
	bank.Mint(tokenX, poolAddr, units(100))
	bank.Mint(tokenY, poolAddr, units(100))

	factory.Register(pool)
	if err := pools.Add(ctx, pool); err != nil {
		t.Fatalf("approve pool: %v", err)
	}

	params := &fakeParams{minProfit: big.NewInt(1), window: 5 * time.Minute}

	swapper := app.NewSwapper(bank, routers, engineAddr, log)
	proc := app.NewLoanProcessor(swapper, bank, params, engineAddr, log)
	validator := app.NewValidator(routers, params)
	simulator := app.NewSimulator(routers, ratelimit.New(6_000), log)

	engine, err := app.NewEngine(validator, simulator, bank, domain.NewProfitLedger(), engineAddr, log)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	engine.RegisterAdapter(app.NewAaveAdapter(aave, proc, log))
	engine.RegisterAdapter(app.NewVaultAdapter(vault, proc, log))
	engine.RegisterAdapter(app.NewLenderAdapter(lender, proc, log))
	engine.RegisterAdapter(app.NewUniV3Adapter(pools, factory, proc, log))

	return &fixture{
		ctx:       ctx,
		log:       log,
		bank:      bank,
		routers:   routers,
		pools:     pools,
		factory:   factory,
		params:    params,
		routerA:   routerA,
		routerB:   routerB,
		aave:      aave,
		vault:     vault,
		lender:    lender,
		pool:      pool,
		swapper:   swapper,
		proc:      proc,
		validator: validator,
		simulator: simulator,
		engine:    engine,
	}
}

// roundTrip is the canonical profitable two-hop path: X -> Y -> X.
func (f *fixture) roundTrip() domain.SwapPath {
	return domain.SwapPath{
		{Router: f.routerA.Address(), TokenIn: tokenX, TokenOut: tokenY, MinOutput: big.NewInt(1)},
		{Router: f.routerB.Address(), TokenIn: tokenY, TokenOut: tokenX, MinOutput: big.NewInt(1)},
	}
}

func vaultAdapterOf(t *testing.T, f *fixture) *app.VaultAdapter {
	t.Helper()
	return app.NewVaultAdapter(f.vault, f.proc, f.log)
}

func lenderAdapterOf(t *testing.T, f *fixture) *app.LenderAdapter {
	t.Helper()
	return app.NewLenderAdapter(f.lender, f.proc, f.log)
}

func aaveAdapterOf(t *testing.T, f *fixture) *app.AaveAdapter {
	t.Helper()
	return app.NewAaveAdapter(f.aave, f.proc, f.log)
}

func univ3AdapterOf(t *testing.T, f *fixture) *app.UniV3Adapter {
	t.Helper()
	return app.NewUniV3Adapter(f.pools, f.factory, f.proc, f.log)
}

func (f *fixture) order(amount *big.Int) domain.BorrowOrder {
	return domain.BorrowOrder{
		Asset:     tokenX,
		Amount:    amount,
		Path:      f.roundTrip(),
		MinProfit: big.NewInt(1),
		Deadline:  time.Now().Add(time.Minute),
	}
}
