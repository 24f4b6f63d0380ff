// Package cmd implements the CLI application to manage a coin ledger.
package cmd

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"golang.org/x/term"

	"github.com/etnz/coinledger"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "ledger")
	c.Register(&accountCmd{}, "ledger")
	c.Register(&importCmd{}, "ledger")
	c.Register(&reconcileCmd{}, "ledger")
	c.Register(&balancesCmd{}, "ledger")
	c.Register(&logCmd{}, "ledger")

	c.Register(&fetchCmd{}, "prices")

	c.Register(&incomeCmd{}, "taxes")
	c.Register(&spendingCmd{}, "taxes")
	c.Register(&taxesCmd{}, "taxes")
	c.Register(&unrealizedCmd{}, "taxes")

	c.Register(&topicCmd{}, "documentation")
	c.Register(&assistCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbFile = flag.String("db", "coinledger.db", "Path to the ledger database file")

// Well-known accounts the tax rules match against. The init command
// creates them; the flags let a ledger organized differently still be
// classified.
var (
	assetsAccount    = flag.String("assets-account", "Assets", "Root account of all holdings")
	walletsAccount   = flag.String("wallets-account", "Assets::Wallets", "Parent account of self-custody wallets")
	erc20Account     = flag.String("tokens-account", "Assets::Wallets::Tokens", "Parent account of ERC-20 style token balances")
	exchangesAccount = flag.String("exchanges-account", "Assets::Exchanges", "Parent account of exchange balances")

	miningFeesAccount  = flag.String("mining-fees-account", "Expenses::Fees::Mining", "Mining pool fee account")
	tradingFeesAccount = flag.String("trading-fees-account", "Expenses::Fees::Trading", "Exchange trading fee account")
	txnFeesAccount     = flag.String("transaction-fees-account", "Expenses::Fees::Transaction", "Network and withdrawal fee account")

	forkIncomeAccount    = flag.String("fork-income-account", "Income::Forks", "Hard fork income account")
	airdropIncomeAccount = flag.String("airdrop-income-account", "Income::Airdrops", "Airdrop income account")
	miningIncomeAccount  = flag.String("mining-income-account", "Income::Mining", "Mining income account")
)

// openDB opens the application database.
func openDB() (*sql.DB, error) {
	return coinledger.OpenDB(*dbFile)
}

// loadLedger opens the database and reads the full ledger.
func loadLedger() (*sql.DB, *coinledger.Ledger, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	ledger, err := coinledger.LoadLedger(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, ledger, nil
}

// taxAccounts resolves the well-known accounts in the ledger.
func taxAccounts(ledger *coinledger.Ledger) (coinledger.TaxAccounts, error) {
	var accounts coinledger.TaxAccounts
	for _, binding := range []struct {
		name string
		dst  **coinledger.Account
	}{
		{*assetsAccount, &accounts.Assets},
		{*walletsAccount, &accounts.Wallets},
		{*erc20Account, &accounts.ERC20},
		{*exchangesAccount, &accounts.Exchanges},
		{"Equity", &accounts.Equity},
		{"Expenses", &accounts.Expenses},
		{*miningFeesAccount, &accounts.MiningFees},
		{*tradingFeesAccount, &accounts.TradingFees},
		{*txnFeesAccount, &accounts.TransactionFees},
		{*forkIncomeAccount, &accounts.ForkIncome},
		{*airdropIncomeAccount, &accounts.AirdropIncome},
		{*miningIncomeAccount, &accounts.MiningIncome},
	} {
		a := ledger.Account(binding.name)
		if a == nil {
			return accounts, fmt.Errorf("account %q does not exist, run 'clt init' first", binding.name)
		}
		*binding.dst = a
	}
	return accounts, nil
}

// printMarkdown renders markdown to the terminal, falling back to the
// raw text when stdout is not a terminal.
func printMarkdown(md string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fail prints the error and converts it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
