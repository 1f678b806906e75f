package app_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/apperror"
)

func TestValidator_ValidateOrder(t *testing.T) {
	unknownRouter := common.HexToAddress("0x0000000000000000000000000000000000000bad")

	tests := []struct {
		name     string
		mutate   func(f *fixture, o *domain.BorrowOrder)
		wantCode apperror.Code
	}{
		{
			name:   "valid_order",
			mutate: func(f *fixture, o *domain.BorrowOrder) {},
		},
		{
			name: "zero_amount",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Amount = big.NewInt(0)
			},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name: "nil_amount",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Amount = nil
			},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name: "expired_deadline",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Deadline = time.Now().Add(-time.Second)
			},
			wantCode: apperror.CodeTransactionTooOld,
		},
		{
			name: "deadline_inside_window",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				// Fixture window is 5 minutes.
				o.Deadline = time.Now().Add(4 * time.Minute)
			},
		},
		{
			name: "deadline_beyond_window",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Deadline = time.Now().Add(10 * time.Hour)
			},
			wantCode: apperror.CodeDeadlineTooFar,
		},
		{
			name: "empty_path",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path = domain.SwapPath{}
			},
			wantCode: apperror.CodeEmptySwapPath,
		},
		{
			name: "six_hops_on_a_five_hop_cap",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				hop := o.Path[0]
				back := o.Path[1]
				o.Path = domain.SwapPath{hop, back, hop, back, hop, back}
			},
			wantCode: apperror.CodePathTooLong,
		},
		{
			name: "path_starts_in_wrong_asset",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[0].TokenIn = tokenZ
			},
			wantCode: apperror.CodeSwapPathAssetMismatch,
		},
		{
			name: "discontinuous_path",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[1].TokenIn = tokenZ
			},
			wantCode: apperror.CodeInvalidSwapPath,
		},
		{
			name: "path_ends_in_wrong_asset",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[1].TokenOut = tokenZ
			},
			wantCode: apperror.CodeInvalidSwapPath,
		},
		{
			name: "unapproved_router",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[1].Router = unknownRouter
			},
			wantCode: apperror.CodeRouterNotApproved,
		},
		{
			name: "zero_slippage_floor",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[1].MinOutput = big.NewInt(0)
			},
			wantCode: apperror.CodeInsufficientSlippageProtection,
		},
		{
			name: "nil_slippage_floor",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				o.Path[0].MinOutput = nil
			},
			wantCode: apperror.CodeInsufficientSlippageProtection,
		},
		{
			name: "paused",
			mutate: func(f *fixture, o *domain.BorrowOrder) {
				f.params.setPaused(true)
			},
			wantCode: apperror.CodeEnginePaused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			order := f.order(units(10))
			tt.mutate(f, &order)

			err := f.validator.ValidateOrder(order)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateOrder() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateOrder() = nil, want code %s", tt.wantCode)
			}
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateOrder() code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

// Tightening the owner-settable window must immediately bound what callers
// can submit; a far-future deadline is not a valid order under any window.
func TestValidator_DeadlineBoundedByConfiguredWindow(t *testing.T) {
	f := newFixture(t)
	f.params.setWindow(time.Second)

	order := f.order(units(10))
	order.Deadline = time.Now().Add(10 * time.Hour)

	err := f.validator.ValidateOrder(order)
	if got := apperror.GetCode(err); got != apperror.CodeDeadlineTooFar {
		t.Fatalf("ValidateOrder() code = %s, want %s", got, apperror.CodeDeadlineTooFar)
	}

	// Widening the window makes the same order acceptable again.
	f.params.setWindow(11 * time.Hour)
	if err := f.validator.ValidateOrder(order); err != nil {
		t.Errorf("ValidateOrder() after widening = %v, want nil", err)
	}
}

// Check order matters: an expired deadline must win over a malformed path
// because it is checked first.
func TestValidator_ChecksRunInOrder(t *testing.T) {
	f := newFixture(t)

	order := f.order(units(10))
	order.Deadline = time.Now().Add(-time.Second)
	order.Path = domain.SwapPath{}

	err := f.validator.ValidateOrder(order)
	if got := apperror.GetCode(err); got != apperror.CodeTransactionTooOld {
		t.Errorf("first failing check = %s, want %s", got, apperror.CodeTransactionTooOld)
	}
}

func TestValidator_ErrorCategories(t *testing.T) {
	f := newFixture(t)

	order := f.order(big.NewInt(0))
	err := f.validator.ValidateOrder(order)
	if got := apperror.GetCategory(err); got != apperror.CategoryParameter {
		t.Errorf("category = %s, want %s", got, apperror.CategoryParameter)
	}

	order = f.order(units(10))
	order.Path[0].Router = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	err = f.validator.ValidateOrder(order)
	if got := apperror.GetCategory(err); got != apperror.CategoryAuthorization {
		t.Errorf("category = %s, want %s", got, apperror.CategoryAuthorization)
	}
}
