package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/coinledger"
)

// SpendingMarkdown reports every spending disposal with its USD
// valuation, one section per spending kind.
func SpendingMarkdown(taxes *coinledger.Taxes) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Spending Report\n\n")

	sections := []struct {
		title string
		typ   coinledger.EventType
	}{
		{"Purchases", coinledger.SpentGeneral},
		{"Transaction Fees", coinledger.SpentTransactionFee},
		{"Trading Fees", coinledger.SpentTradingFee},
	}

	var grandTotal coinledger.Amount
	for _, section := range sections {
		events := taxes.EventsOfType(section.typ)
		if len(events) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", section.title)
		fmt.Fprintln(&b, "| Date | Coin | Amount | Value (USD) | Memo |")
		fmt.Fprintln(&b, "|:---|:---|---:|---:|:---|")

		var total coinledger.Amount
		for _, ce := range events {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				ce.Event.Date.DayString(),
				ce.Coin.Symbol(),
				ce.Event.Amount,
				usd(ce.Event.AmountUSD),
				ce.Event.Memo,
			)
			total = total.Add(ce.Event.AmountUSD)
		}
		fmt.Fprintf(&b, "| **Total** | | | **%s** | |\n\n", usd(total))
		grandTotal = grandTotal.Add(total)
	}

	fmt.Fprintf(&b, "Total spending: **%s**\n", usd(grandTotal))
	return b.String()
}
