package app

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/infra/memchain"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

var (
	ownerAddr    = common.HexToAddress("0x0000000000000000000000000000000000000111")
	strangerAddr = common.HexToAddress("0x0000000000000000000000000000000000000222")
	heirAddr     = common.HexToAddress("0x0000000000000000000000000000000000000333")
	engineAddr   = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	tokenX       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type harness struct {
	ctx    context.Context
	bank   *memchain.Bank
	native *memchain.NativeBank
	admin  *AdminService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	bank := memchain.NewBank()
	native := memchain.NewNativeBank()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	admin, err := NewAdminService(ownerAddr, engineAddr, big.NewInt(1), 5*time.Minute, bank, native, log)
	if err != nil {
		t.Fatalf("NewAdminService() error = %v", err)
	}

	return &harness{
		ctx:    context.Background(),
		bank:   bank,
		native: native,
		admin:  admin,
	}
}

func TestNewAdminService_RejectsBadParameters(t *testing.T) {
	bank := memchain.NewBank()
	native := memchain.NewNativeBank()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	tests := []struct {
		name      string
		owner     common.Address
		minProfit *big.Int
		window    time.Duration
		wantCode  apperror.Code
	}{
		{
			name:      "zero_owner",
			minProfit: big.NewInt(1),
			window:    5 * time.Minute,
			wantCode:  apperror.CodeInvalidRecipient,
		},
		{
			name:      "zero_minimum_profit",
			owner:     ownerAddr,
			minProfit: big.NewInt(0),
			window:    5 * time.Minute,
			wantCode:  apperror.CodeInvalidMinimumProfit,
		},
		{
			name:      "window_too_short",
			owner:     ownerAddr,
			minProfit: big.NewInt(1),
			window:    time.Millisecond,
			wantCode:  apperror.CodeInvalidDeadlineWindow,
		},
		{
			name:      "window_too_long",
			owner:     ownerAddr,
			minProfit: big.NewInt(1),
			window:    time.Hour,
			wantCode:  apperror.CodeInvalidDeadlineWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdminService(tt.owner, engineAddr, tt.minProfit, tt.window, bank, native, log)
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestAdminService_TwoPhaseOwnership(t *testing.T) {
	h := newHarness(t)

	if err := h.admin.ProposeOwner(h.ctx, strangerAddr, heirAddr); apperror.GetCode(err) != apperror.CodeNotOwner {
		t.Errorf("non-owner proposal code = %s, want %s", apperror.GetCode(err), apperror.CodeNotOwner)
	}
	if err := h.admin.ProposeOwner(h.ctx, ownerAddr, common.Address{}); apperror.GetCode(err) != apperror.CodeInvalidRecipient {
		t.Errorf("zero successor code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidRecipient)
	}

	// No proposal outstanding yet.
	if err := h.admin.AcceptOwnership(h.ctx, heirAddr); apperror.GetCode(err) != apperror.CodeNotPendingOwner {
		t.Errorf("accept without proposal code = %s, want %s", apperror.GetCode(err), apperror.CodeNotPendingOwner)
	}

	if err := h.admin.ProposeOwner(h.ctx, ownerAddr, heirAddr); err != nil {
		t.Fatalf("ProposeOwner() error = %v", err)
	}
	if got := h.admin.PendingOwner(); got != heirAddr {
		t.Errorf("PendingOwner() = %s, want %s", got.Hex(), heirAddr.Hex())
	}

	// The proposal does not move ownership by itself, and only the proposed
	// successor can complete it.
	if got := h.admin.Owner(); got != ownerAddr {
		t.Errorf("Owner() = %s before acceptance, want %s", got.Hex(), ownerAddr.Hex())
	}
	if err := h.admin.AcceptOwnership(h.ctx, strangerAddr); apperror.GetCode(err) != apperror.CodeNotPendingOwner {
		t.Errorf("stranger acceptance code = %s, want %s", apperror.GetCode(err), apperror.CodeNotPendingOwner)
	}

	if err := h.admin.AcceptOwnership(h.ctx, heirAddr); err != nil {
		t.Fatalf("AcceptOwnership() error = %v", err)
	}
	if got := h.admin.Owner(); got != heirAddr {
		t.Errorf("Owner() = %s after acceptance, want %s", got.Hex(), heirAddr.Hex())
	}
	if got := h.admin.PendingOwner(); got != (common.Address{}) {
		t.Errorf("PendingOwner() = %s after acceptance, want zero", got.Hex())
	}

	// The old owner lost control.
	if err := h.admin.Pause(h.ctx, ownerAddr); apperror.GetCode(err) != apperror.CodeNotOwner {
		t.Errorf("old owner Pause() code = %s, want %s", apperror.GetCode(err), apperror.CodeNotOwner)
	}
}

func TestAdminService_PauseGating(t *testing.T) {
	h := newHarness(t)

	if err := h.admin.Pause(h.ctx, strangerAddr); apperror.GetCode(err) != apperror.CodeNotOwner {
		t.Errorf("stranger Pause() code = %s, want %s", apperror.GetCode(err), apperror.CodeNotOwner)
	}
	if h.admin.Paused() {
		t.Fatalf("Paused() = true before any pause")
	}

	if err := h.admin.Pause(h.ctx, ownerAddr); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if !h.admin.Paused() {
		t.Errorf("Paused() = false after Pause")
	}

	if err := h.admin.Unpause(h.ctx, strangerAddr); apperror.GetCode(err) != apperror.CodeNotOwner {
		t.Errorf("stranger Unpause() code = %s, want %s", apperror.GetCode(err), apperror.CodeNotOwner)
	}
	if err := h.admin.Unpause(h.ctx, ownerAddr); err != nil {
		t.Fatalf("Unpause() error = %v", err)
	}
	if h.admin.Paused() {
		t.Errorf("Paused() = true after Unpause")
	}
}

func TestAdminService_SetMinimumProfit(t *testing.T) {
	h := newHarness(t)

	if err := h.admin.SetMinimumProfit(h.ctx, ownerAddr, big.NewInt(0)); apperror.GetCode(err) != apperror.CodeInvalidMinimumProfit {
		t.Errorf("zero floor code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidMinimumProfit)
	}
	if err := h.admin.SetMinimumProfit(h.ctx, strangerAddr, big.NewInt(5)); apperror.GetCode(err) != apperror.CodeNotOwner {
		t.Errorf("stranger code = %s, want %s", apperror.GetCode(err), apperror.CodeNotOwner)
	}

	if err := h.admin.SetMinimumProfit(h.ctx, ownerAddr, big.NewInt(42)); err != nil {
		t.Fatalf("SetMinimumProfit() error = %v", err)
	}
	if got := h.admin.MinimumProfit(); got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("MinimumProfit() = %s, want 42", got)
	}
}

func TestAdminService_SetDeadlineWindow(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name     string
		caller   common.Address
		window   time.Duration
		wantCode apperror.Code
	}{
		{name: "below_minimum", caller: ownerAddr, window: 500 * time.Millisecond, wantCode: apperror.CodeInvalidDeadlineWindow},
		{name: "above_maximum", caller: ownerAddr, window: 11 * time.Minute, wantCode: apperror.CodeInvalidDeadlineWindow},
		{name: "not_owner", caller: strangerAddr, window: time.Minute, wantCode: apperror.CodeNotOwner},
		{name: "accepted", caller: ownerAddr, window: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.admin.SetDeadlineWindow(h.ctx, tt.caller, tt.window)
			if got := apperror.GetCode(err); tt.wantCode != "" {
				if got != tt.wantCode {
					t.Fatalf("code = %s, want %s", got, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDeadlineWindow() error = %v", err)
			}
			if got := h.admin.DeadlineWindow(); got != tt.window {
				t.Errorf("DeadlineWindow() = %s, want %s", got, tt.window)
			}
		})
	}
}

func TestAdminService_WithdrawToken(t *testing.T) {
	h := newHarness(t)
	h.bank.Mint(tokenX, engineAddr, big.NewInt(100))

	if err := h.admin.WithdrawToken(h.ctx, strangerAddr, tokenX, strangerAddr, big.NewInt(50)); apperror.GetCode(err) != apperror.CodeNotOwner {
		t.Errorf("stranger code = %s, want %s", apperror.GetCode(err), apperror.CodeNotOwner)
	}
	if err := h.admin.WithdrawToken(h.ctx, ownerAddr, tokenX, common.Address{}, big.NewInt(50)); apperror.GetCode(err) != apperror.CodeInvalidRecipient {
		t.Errorf("zero recipient code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidRecipient)
	}
	if err := h.admin.WithdrawToken(h.ctx, ownerAddr, tokenX, ownerAddr, big.NewInt(0)); apperror.GetCode(err) != apperror.CodeInvalidAmount {
		t.Errorf("zero amount code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidAmount)
	}

	// More than the engine holds.
	if err := h.admin.WithdrawToken(h.ctx, ownerAddr, tokenX, ownerAddr, big.NewInt(200)); apperror.GetCode(err) != apperror.CodeTransferFailed {
		t.Errorf("overdraw code = %s, want %s", apperror.GetCode(err), apperror.CodeTransferFailed)
	}

	if err := h.admin.WithdrawToken(h.ctx, ownerAddr, tokenX, ownerAddr, big.NewInt(60)); err != nil {
		t.Fatalf("WithdrawToken() error = %v", err)
	}
	if got := h.bank.BalanceOf(tokenX, ownerAddr); got.Cmp(big.NewInt(60)) != 0 {
		t.Errorf("owner balance = %s, want 60", got)
	}
	if got := h.bank.BalanceOf(tokenX, engineAddr); got.Cmp(big.NewInt(40)) != 0 {
		t.Errorf("engine balance = %s, want 40", got)
	}
}

func TestAdminService_WithdrawNative(t *testing.T) {
	h := newHarness(t)
	h.native.Deposit(engineAddr, big.NewInt(1_000))

	if err := h.admin.WithdrawNative(h.ctx, ownerAddr, ownerAddr, big.NewInt(400)); err != nil {
		t.Fatalf("WithdrawNative() error = %v", err)
	}
	if got := h.native.NativeBalance(ownerAddr); got.Cmp(big.NewInt(400)) != 0 {
		t.Errorf("owner native balance = %s, want 400", got)
	}
}

func TestAdminService_WithdrawNative_StipendTooSmall(t *testing.T) {
	h := newHarness(t)
	h.native.Deposit(engineAddr, big.NewInt(1_000))

	// The recipient needs more gas than the fixed stipend forwards; the
	// withdrawal fails and is not retried with a larger stipend.
	h.native.SetReceiveCost(ownerAddr, NativeTransferStipend+1)

	err := h.admin.WithdrawNative(h.ctx, ownerAddr, ownerAddr, big.NewInt(400))
	if got := apperror.GetCode(err); got != apperror.CodeTransferFailed {
		t.Fatalf("code = %s, want %s", got, apperror.CodeTransferFailed)
	}
	if got := h.native.NativeBalance(engineAddr); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Errorf("engine native balance = %s, want 1000 after failed withdrawal", got)
	}
}
