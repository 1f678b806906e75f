// Package console renders execution reports for terminal output.
package console

import (
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/internal/asset"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	profitStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Reporter writes a styled summary of each completed arbitrage. Amounts are
// rendered in display units through the asset registry; unknown tokens fall
// back to an 18-decimal placeholder.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	assets  *asset.Registry
	chainID uint64
}

// NewReporter creates a reporter writing to w. assets may be nil, in which
// case raw units are printed.
func NewReporter(w io.Writer, assets *asset.Registry, chainID uint64) *Reporter {
	return &Reporter{w: w, assets: assets, chainID: chainID}
}

func (r *Reporter) amount(token common.Address, v *big.Int) string {
	if r.assets == nil || v == nil || v.Sign() < 0 {
		return v.String()
	}
	return asset.NewAmount(r.assets.ResolveToken(r.chainID, token), v).String()
}

// Report renders one execution report.
func (r *Reporter) Report(report *domain.ExecutionReport) {
	rows := []string{
		titleStyle.Render("arbitrage completed"),
		labelStyle.Render("provider") + valueStyle.Render(report.Provider),
		labelStyle.Render("asset") + valueStyle.Render(report.Asset.Hex()),
		labelStyle.Render("borrowed") + valueStyle.Render(r.amount(report.Asset, report.AmountBorrowed)),
		labelStyle.Render("fee") + valueStyle.Render(r.amount(report.Asset, report.FlashLoanFee)),
		labelStyle.Render("profit") + profitStyle.Render(r.amount(report.Asset, report.Profit)),
		labelStyle.Render("hops") + valueStyle.Render(fmt.Sprintf("%d", report.Hops)),
		labelStyle.Render("duration") + valueStyle.Render(report.Duration.String()),
	}

	out := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, out)
}

// PrintLedger renders the cumulative profit view.
func (r *Reporter) PrintLedger(view domain.LedgerView) {
	rows := []string{
		titleStyle.Render("profit ledger"),
		labelStyle.Render("total") + profitStyle.Render(view.Total.String()),
	}
	for token, profit := range view.ByAsset {
		rows = append(rows, labelStyle.Render(token.Hex()[:10]+"..")+valueStyle.Render(r.amount(token, profit)))
	}

	out := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, out)
}
