package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/coinledger"
)

// LogMarkdown renders the transaction journal in chronological order,
// one section per transaction with its splits.
func LogMarkdown(ledger *coinledger.Ledger) string {
	var txns []*coinledger.Transaction
	for txn := range ledger.Transactions() {
		txns = append(txns, txn)
	}
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date().Before(txns[j].Date()) })

	var b strings.Builder
	fmt.Fprint(&b, "# Transaction Log\n\n")
	if len(txns) == 0 {
		fmt.Fprint(&b, "The ledger is empty.\n")
		return b.String()
	}

	for _, txn := range txns {
		title := txn.Description()
		if title == "" {
			title = "(no description)"
		}
		fmt.Fprintf(&b, "## %s: %s\n\n", txn.Date().DayString(), title)
		if !txn.Balanced() {
			fmt.Fprint(&b, "*unbalanced*\n\n")
		}
		fmt.Fprintln(&b, "| Account | Amount | Coin | Memo |")
		fmt.Fprintln(&b, "|:---|---:|:---|:---|")
		for _, s := range txn.Splits() {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				s.Account().FullName(), s.Amount().SignedString(), s.Coin().Symbol(), s.Memo())
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}
