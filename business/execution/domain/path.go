// Package domain contains the core domain types for the execution context.
package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MaxHops is the maximum number of swap steps a path may carry.
const MaxHops = 5

// SwapStep is one hop through one venue: swap TokenIn for TokenOut on
// Router, requiring at least MinOutput back. Immutable once constructed
// for a call.
type SwapStep struct {
	Router    common.Address
	TokenIn   common.Address
	TokenOut  common.Address
	MinOutput *big.Int
}

// Clone returns a deep copy of the step.
func (s SwapStep) Clone() SwapStep {
	c := s
	if s.MinOutput != nil {
		c.MinOutput = new(big.Int).Set(s.MinOutput)
	}
	return c
}

// SwapPath is the ordered sequence of hops an arbitrage executes. A valid
// path starts and ends in the borrowed asset, is continuous, and carries a
// positive slippage floor on every hop.
type SwapPath []SwapStep

// Clone returns a deep copy of the path.
func (p SwapPath) Clone() SwapPath {
	if p == nil {
		return nil
	}
	c := make(SwapPath, len(p))
	for i, s := range p {
		c[i] = s.Clone()
	}
	return c
}

// IsContinuous reports whether every hop's input is the previous hop's output.
func (p SwapPath) IsContinuous() bool {
	for i := 1; i < len(p); i++ {
		if p[i].TokenIn != p[i-1].TokenOut {
			return false
		}
	}
	return true
}

// IsRoundTrip reports whether the path starts and ends in asset.
func (p SwapPath) IsRoundTrip(asset common.Address) bool {
	if len(p) == 0 {
		return false
	}
	return p[0].TokenIn == asset && p[len(p)-1].TokenOut == asset
}

// HasIntermediateCycle reports whether an intermediate asset reappears before
// the path's last hop. Intentionally conservative: a path that legitimately
// revisits an asset mid-route is also flagged.
func (p SwapPath) HasIntermediateCycle() bool {
	seen := make(map[common.Address]bool, len(p))
	for i := 0; i < len(p)-1; i++ {
		out := p[i].TokenOut
		if seen[out] {
			return true
		}
		seen[out] = true
	}
	return false
}

// String renders the path as a token chain for logs.
func (p SwapPath) String() string {
	if len(p) == 0 {
		return "<empty>"
	}
	var sb strings.Builder
	sb.WriteString(shortAddr(p[0].TokenIn))
	for _, s := range p {
		fmt.Fprintf(&sb, " -> %s", shortAddr(s.TokenOut))
	}
	return sb.String()
}

func shortAddr(a common.Address) string {
	h := a.Hex()
	return h[:6] + ".." + h[len(h)-4:]
}
