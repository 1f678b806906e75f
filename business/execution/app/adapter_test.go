package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
	"github.com/fd1az/flasharb/business/execution/infra/memchain"
	"github.com/fd1az/flasharb/internal/apperror"
)

// newTestTieredPool seeds a funded X/Y pool at the 3000 tier.
func newTestTieredPool(t *testing.T, f *fixture, addr common.Address) *memchain.TieredPool {
	t.Helper()
	p := memchain.NewTieredPool(addr, tokenX, tokenY, 3000, f.bank)
	f.bank.Mint(tokenX, addr, units(100))
	f.bank.Mint(tokenY, addr, units(100))
	return p
}

// misbehavingVault invokes the receiver callback with whatever shape the
// test configures instead of what was requested.
type misbehavingVault struct {
	addr    common.Address
	caller  common.Address
	tokens  []common.Address
	amounts []*big.Int
	fees    []*big.Int
}

func (v *misbehavingVault) Address() common.Address { return v.addr }

func (v *misbehavingVault) FlashLoan(ctx context.Context, initiator common.Address, recipient app.VaultFlashReceiver, tokens []common.Address, amounts []*big.Int, userData []byte) error {
	return recipient.ReceiveFlashLoan(ctx, v.caller, v.tokens, v.amounts, v.fees, userData)
}

func TestVaultAdapter_CallbackAuthentication(t *testing.T) {
	amount := units(10)

	tests := []struct {
		name     string
		caller   common.Address
		tokens   []common.Address
		fees     []*big.Int
		wantCode apperror.Code
	}{
		{
			name:     "wrong_caller",
			caller:   common.HexToAddress("0x0000000000000000000000000000000000000bad"),
			tokens:   []common.Address{tokenX},
			fees:     []*big.Int{big.NewInt(0)},
			wantCode: apperror.CodeInvalidFlashLoanCaller,
		},
		{
			name:     "multi_asset_request",
			caller:   vaultAddr,
			tokens:   []common.Address{tokenX, tokenY},
			fees:     []*big.Int{big.NewInt(0), big.NewInt(0)},
			wantCode: apperror.CodeMultiAssetNotSupported,
		},
		{
			name:     "nonzero_fee_from_a_zero_fee_provider",
			caller:   vaultAddr,
			tokens:   []common.Address{tokenX},
			fees:     []*big.Int{big.NewInt(1)},
			wantCode: apperror.CodeUnexpectedFlashLoanFee,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			amounts := make([]*big.Int, len(tt.tokens))
			for i := range amounts {
				amounts[i] = amount
			}
			vault := &misbehavingVault{
				addr:    vaultAddr,
				caller:  tt.caller,
				tokens:  tt.tokens,
				amounts: amounts,
				fees:    tt.fees,
			}

			adapter := app.NewVaultAdapter(vault, f.proc, f.log)
			_, err := adapter.Borrow(f.ctx, f.order(amount))
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("Borrow() code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestVaultAdapter_UnsolicitedCallbackRejected(t *testing.T) {
	f := newFixture(t)
	adapter := vaultAdapterOf(t, f)

	// Direct invocation with no loan outstanding: the active flag wins
	// before any other check.
	err := adapter.ReceiveFlashLoan(f.ctx, vaultAddr,
		[]common.Address{tokenX}, []*big.Int{units(10)}, []*big.Int{big.NewInt(0)}, nil)
	if got := apperror.GetCode(err); got != apperror.CodeFlashLoanNotActive {
		t.Errorf("code = %s, want %s", got, apperror.CodeFlashLoanNotActive)
	}
}

// misbehavingAavePool invokes ExecuteOperation with a configurable caller
// and initiator.
type misbehavingAavePool struct {
	addr      common.Address
	caller    common.Address
	initiator common.Address
}

func (p *misbehavingAavePool) Address() common.Address { return p.addr }
func (p *misbehavingAavePool) PremiumBps() uint64      { return 9 }

func (p *misbehavingAavePool) FlashLoanSimple(ctx context.Context, initiator common.Address, receiver app.AaveFlashReceiver, asset common.Address, amount *big.Int, params []byte) error {
	premium := new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(9)), big.NewInt(10_000))
	_, err := receiver.ExecuteOperation(ctx, p.caller, asset, amount, premium, p.initiator, params)
	return err
}

func TestAaveAdapter_CallbackAuthentication(t *testing.T) {
	stranger := common.HexToAddress("0x0000000000000000000000000000000000000bad")

	tests := []struct {
		name      string
		caller    common.Address
		initiator common.Address
		wantCode  apperror.Code
	}{
		{
			name:      "wrong_caller",
			caller:    stranger,
			initiator: engineAddr,
			wantCode:  apperror.CodeInvalidFlashLoanCaller,
		},
		{
			name:      "wrong_initiator",
			caller:    aaveAddr,
			initiator: stranger,
			wantCode:  apperror.CodeInvalidFlashLoanInitiator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			pool := &misbehavingAavePool{addr: aaveAddr, caller: tt.caller, initiator: tt.initiator}
			adapter := app.NewAaveAdapter(pool, f.proc, f.log)

			_, err := adapter.Borrow(f.ctx, f.order(units(10)))
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("Borrow() code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestAaveAdapter_UnsolicitedCallbackRejected(t *testing.T) {
	f := newFixture(t)
	adapter := aaveAdapterOf(t, f)

	_, err := adapter.ExecuteOperation(f.ctx, aaveAddr, tokenX, units(10), big.NewInt(0), engineAddr, nil)
	if got := apperror.GetCode(err); got != apperror.CodeFlashLoanNotActive {
		t.Errorf("code = %s, want %s", got, apperror.CodeFlashLoanNotActive)
	}
}

// misbehavingLender invokes OnFlashLoan with a configurable initiator.
type misbehavingLender struct {
	addr      common.Address
	initiator common.Address
}

func (l *misbehavingLender) Address() common.Address { return l.addr }

func (l *misbehavingLender) FlashFee(_ common.Address, amount *big.Int) (*big.Int, error) {
	return new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(30)), big.NewInt(10_000)), nil
}

func (l *misbehavingLender) FlashLoan(ctx context.Context, initiator common.Address, receiver app.FlashBorrower, token common.Address, amount *big.Int, data []byte) error {
	fee, _ := l.FlashFee(token, amount)
	_, err := receiver.OnFlashLoan(ctx, l.addr, l.initiator, token, amount, fee, data)
	return err
}

func TestLenderAdapter_WrongInitiatorRejected(t *testing.T) {
	f := newFixture(t)

	lender := &misbehavingLender{
		addr:      lenderAddr,
		initiator: common.HexToAddress("0x0000000000000000000000000000000000000bad"),
	}
	adapter := app.NewLenderAdapter(lender, f.proc, f.log)

	_, err := adapter.Borrow(f.ctx, f.order(units(10)))
	if got := apperror.GetCode(err); got != apperror.CodeInvalidFlashLoanInitiator {
		t.Errorf("Borrow() code = %s, want %s", got, apperror.CodeInvalidFlashLoanInitiator)
	}
}

func TestLenderAdapter_GrantsExactRepaymentAllowance(t *testing.T) {
	f := newFixture(t)

	order := f.order(units(10))
	_, err := f.engine.ExecuteArbitrage(f.ctx, app.ProviderLender, order)
	if err != nil {
		t.Fatalf("ExecuteArbitrage() error = %v", err)
	}

	// The lender pulled the full allowance; nothing residual survives.
	if got := f.bank.Allowance(tokenX, engineAddr, lenderAddr); got.Sign() != 0 {
		t.Errorf("residual lender allowance = %s, want 0", got)
	}
}

func TestUniV3Adapter_WhitelistedButNotFactoryRegistered(t *testing.T) {
	f := newFixture(t)

	// A look-alike pool the owner whitelists but the canonical factory has
	// never registered for its triple.
	impostor := newTestTieredPool(t, f, common.HexToAddress("0x0000000000000000000000000000000000000dd2"))
	if err := f.pools.Add(f.ctx, impostor); err != nil {
		t.Fatalf("approve impostor pool: %v", err)
	}

	order := f.order(units(10))
	order.Pool = impostor.Address()

	adapter := univ3AdapterOf(t, f)
	_, err := adapter.Borrow(f.ctx, order)
	if got := apperror.GetCode(err); got != apperror.CodePoolNotFromFactory {
		t.Errorf("Borrow() code = %s, want %s", got, apperror.CodePoolNotFromFactory)
	}
}

func TestUniV3Adapter_UnapprovedPoolRejected(t *testing.T) {
	f := newFixture(t)

	order := f.order(units(10))
	order.Pool = common.HexToAddress("0x0000000000000000000000000000000000000bad")

	adapter := univ3AdapterOf(t, f)
	_, err := adapter.Borrow(f.ctx, order)
	if got := apperror.GetCode(err); got != apperror.CodePoolNotApproved {
		t.Errorf("Borrow() code = %s, want %s", got, apperror.CodePoolNotApproved)
	}
}

func TestUniV3Adapter_AssetMustBeAPoolToken(t *testing.T) {
	f := newFixture(t)

	order := f.order(units(10))
	order.Asset = tokenZ
	order.Pool = poolAddr

	adapter := univ3AdapterOf(t, f)
	_, err := adapter.Borrow(f.ctx, order)
	if got := apperror.GetCode(err); got != apperror.CodePoolAssetMismatch {
		t.Errorf("Borrow() code = %s, want %s", got, apperror.CodePoolAssetMismatch)
	}
}

// feeInjectingPool charges a fee on the side that was never borrowed.
type feeInjectingPool struct {
	*memchain.TieredPool
}

func (p *feeInjectingPool) Flash(ctx context.Context, initiator common.Address, recipient app.TieredFlashReceiver, amount0, amount1 *big.Int, data []byte) error {
	fee0 := new(big.Int).Div(new(big.Int).Mul(amount0, big.NewInt(3000)), big.NewInt(1_000_000))
	// Borrowed token0, yet fee1 is nonzero.
	return recipient.FlashCallback(ctx, p.Address(), fee0, big.NewInt(1), data)
}

func TestUniV3Adapter_UnborrowedSideFeeMustBeZero(t *testing.T) {
	f := newFixture(t)

	hostile := &feeInjectingPool{newTestTieredPool(t, f, common.HexToAddress("0x0000000000000000000000000000000000000dd3"))}
	f.factory.Register(hostile)
	if err := f.pools.Add(f.ctx, hostile); err != nil {
		t.Fatalf("approve pool: %v", err)
	}

	order := f.order(units(10))
	order.Pool = hostile.Address()

	adapter := univ3AdapterOf(t, f)
	_, err := adapter.Borrow(f.ctx, order)
	if got := apperror.GetCode(err); got != apperror.CodeUnexpectedFlashLoanFee {
		t.Errorf("Borrow() code = %s, want %s", got, apperror.CodeUnexpectedFlashLoanFee)
	}
}

func TestUniV3Adapter_ScenarioDViaEngine(t *testing.T) {
	f := newFixture(t)

	impostor := newTestTieredPool(t, f, common.HexToAddress("0x0000000000000000000000000000000000000dd4"))
	if err := f.pools.Add(f.ctx, impostor); err != nil {
		t.Fatalf("approve impostor pool: %v", err)
	}

	order := f.order(units(10))
	order.Pool = impostor.Address()

	_, err := f.engine.ExecuteArbitrage(f.ctx, app.ProviderUniV3, order)
	if got := apperror.GetCode(err); got != apperror.CodePoolNotFromFactory {
		t.Errorf("code = %s, want %s", got, apperror.CodePoolNotFromFactory)
	}
}
