package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenX = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenY = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	tokenZ = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	venue  = common.HexToAddress("0x0000000000000000000000000000000000000ea1")
)

func step(in, out common.Address) SwapStep {
	return SwapStep{Router: venue, TokenIn: in, TokenOut: out, MinOutput: big.NewInt(1)}
}

func TestSwapPath_IsContinuous(t *testing.T) {
	tests := []struct {
		name string
		path SwapPath
		want bool
	}{
		{
			name: "empty_path",
			path: SwapPath{},
			want: true,
		},
		{
			name: "single_hop",
			path: SwapPath{step(tokenX, tokenY)},
			want: true,
		},
		{
			name: "continuous_two_hops",
			path: SwapPath{step(tokenX, tokenY), step(tokenY, tokenX)},
			want: true,
		},
		{
			name: "broken_link",
			path: SwapPath{step(tokenX, tokenY), step(tokenZ, tokenX)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.IsContinuous(); got != tt.want {
				t.Errorf("IsContinuous() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwapPath_IsRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		path  SwapPath
		asset common.Address
		want  bool
	}{
		{
			name:  "empty_path",
			path:  SwapPath{},
			asset: tokenX,
			want:  false,
		},
		{
			name:  "round_trip",
			path:  SwapPath{step(tokenX, tokenY), step(tokenY, tokenX)},
			asset: tokenX,
			want:  true,
		},
		{
			name:  "wrong_start",
			path:  SwapPath{step(tokenY, tokenZ), step(tokenZ, tokenX)},
			asset: tokenX,
			want:  false,
		},
		{
			name:  "wrong_end",
			path:  SwapPath{step(tokenX, tokenY), step(tokenY, tokenZ)},
			asset: tokenX,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.IsRoundTrip(tt.asset); got != tt.want {
				t.Errorf("IsRoundTrip() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwapPath_HasIntermediateCycle(t *testing.T) {
	tests := []struct {
		name string
		path SwapPath
		want bool
	}{
		{
			name: "two_hop_round_trip",
			path: SwapPath{step(tokenX, tokenY), step(tokenY, tokenX)},
			want: false,
		},
		{
			name: "three_hop_no_cycle",
			path: SwapPath{step(tokenX, tokenY), step(tokenY, tokenZ), step(tokenZ, tokenX)},
			want: false,
		},
		{
			name: "intermediate_repeats",
			path: SwapPath{
				step(tokenX, tokenY),
				step(tokenY, tokenZ),
				step(tokenZ, tokenY),
				step(tokenY, tokenX),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.HasIntermediateCycle(); got != tt.want {
				t.Errorf("HasIntermediateCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwapPath_CloneIsDeep(t *testing.T) {
	original := SwapPath{step(tokenX, tokenY)}
	clone := original.Clone()

	clone[0].MinOutput.SetInt64(999)
	if original[0].MinOutput.Int64() != 1 {
		t.Errorf("mutating the clone changed the original path")
	}
}

func TestBorrowOrder_CloneIsDeep(t *testing.T) {
	order := BorrowOrder{
		Asset:     tokenX,
		Amount:    big.NewInt(10),
		Path:      SwapPath{step(tokenX, tokenY), step(tokenY, tokenX)},
		MinProfit: big.NewInt(1),
	}

	clone := order.Clone()
	clone.Amount.SetInt64(999)
	clone.MinProfit.SetInt64(999)
	clone.Path[0].MinOutput.SetInt64(999)

	if order.Amount.Int64() != 10 || order.MinProfit.Int64() != 1 {
		t.Errorf("mutating the clone changed the original order")
	}
	if order.Path[0].MinOutput.Int64() != 1 {
		t.Errorf("mutating the clone changed the original path")
	}
}
