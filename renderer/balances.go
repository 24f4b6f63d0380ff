package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/coinledger"
)

// BalancesMarkdown renders the account tree with per-coin balances.
// Placeholder accounts show the aggregate of their subtree.
func BalancesMarkdown(ledger *coinledger.Ledger) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Account Balances\n\n")

	balances := ledger.Balances()
	for _, root := range ledger.RootAccounts() {
		renderAccount(&b, ledger, root, balances, 0)
	}
	return b.String()
}

func renderAccount(b *strings.Builder, ledger *coinledger.Ledger, a *coinledger.Account, balances map[*coinledger.Account]coinledger.Balance, depth int) {
	total := ledger.TreeBalance(a, balances)
	if total.IsZero() && len(ledger.Children(a)) == 0 {
		return
	}

	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s- **%s**: %s\n", indent, a.Name(), balanceString(total))
	for _, child := range ledger.Children(a) {
		renderAccount(b, ledger, child, balances, depth+1)
	}
}

func balanceString(balance coinledger.Balance) string {
	type line struct {
		symbol string
		amount coinledger.Amount
	}
	var lines []line
	for coin, amount := range balance {
		if amount.IsZero() {
			continue
		}
		lines = append(lines, line{coin.Symbol(), amount})
	}
	if len(lines) == 0 {
		return "0"
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].symbol < lines[j].symbol })

	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s %s", l.amount, l.symbol))
	}
	return strings.Join(parts, ", ")
}
