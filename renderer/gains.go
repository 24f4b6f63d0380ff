package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/coinledger"
)

// GainsMarkdown renders the realized capital gains the way a Form 8949
// expects them: one row per record, short-term and long-term in
// separate sections, dates in MM/DD/YYYY. Fused records acquired on
// different dates show VARIOUS as the acquisition date.
func GainsMarkdown(cg *coinledger.CapitalGains, order coinledger.LotOrder, fuse bool) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Capital Gains Report\n\n")
	fmt.Fprintf(&b, "Cost basis method: %s\n\n", order)

	short, long := cg.ShortTerm, cg.LongTerm
	if fuse {
		short = coinledger.Fuse(append([]coinledger.GainLoss(nil), short...))
		long = coinledger.Fuse(append([]coinledger.GainLoss(nil), long...))
	} else {
		coinledger.SortGainLoss(short)
		coinledger.SortGainLoss(long)
	}

	renderGainSection(&b, "Short-Term", short)
	renderGainSection(&b, "Long-Term", long)
	return b.String()
}

func renderGainSection(b *strings.Builder, title string, gains []coinledger.GainLoss) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(gains) == 0 {
		fmt.Fprint(b, "No records.\n\n")
		return
	}
	fmt.Fprintln(b, "| Description | Acquired | Disposed | Proceeds | Cost Basis | Gain or Loss |")
	fmt.Fprintln(b, "|:---|:---|:---|---:|---:|---:|")

	var proceeds, cost coinledger.Amount
	for _, g := range gains {
		acquired := g.Acquired.IRSDayString()
		if g.VariousAcquiredDates {
			acquired = "VARIOUS"
		}
		fmt.Fprintf(b, "| %s %s | %s | %s | %s | %s | %s |\n",
			g.Amount,
			g.Coin.Symbol(),
			acquired,
			g.Disposed.IRSDayString(),
			usd(g.Proceeds),
			usd(g.Cost),
			signedUSD(g.Profit()),
		)
		proceeds = proceeds.Add(g.Proceeds)
		cost = cost.Add(g.Cost)
	}
	fmt.Fprintf(b, "| **Total** | | | **%s** | **%s** | **%s** |\n\n",
		usd(proceeds), usd(cost), signedUSD(proceeds.Sub(cost)))
}

// UnrealizedMarkdown values the unsold inventory at current spot prices.
func UnrealizedMarkdown(gains []coinledger.UnrealizedGain) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Unrealized Gains\n\n")
	if len(gains) == 0 {
		fmt.Fprint(&b, "No unsold inventory.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Coin | Amount | Cost Basis | Market Value | Unrealized |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")

	var cost, value coinledger.Amount
	for _, g := range gains {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			g.Coin.Symbol(),
			g.Amount,
			usd(g.Cost),
			usd(g.Value),
			signedUSD(g.Profit),
		)
		cost = cost.Add(g.Cost)
		value = value.Add(g.Value)
	}
	fmt.Fprintf(&b, "| **Total** | | **%s** | **%s** | **%s** |\n",
		usd(cost), usd(value), signedUSD(value.Sub(cost)))
	return b.String()
}
