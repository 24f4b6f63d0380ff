package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
)

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new ledger database" }
func (*initCmd) Usage() string {
	return `clt init

  Creates the ledger database with the root accounts and the well-known
  income, expense and asset accounts the tax rules rely on.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {}

func (c *initCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger := coinledger.InitLedger()

	// the account tree the classifier expects, parents before children
	tree := []struct {
		fullName    string
		placeholder bool
	}{
		{*walletsAccount, true},
		{*erc20Account, true},
		{*exchangesAccount, true},
		{"Expenses::Fees", true},
		{*miningFeesAccount, false},
		{*tradingFeesAccount, false},
		{*txnFeesAccount, false},
		{*forkIncomeAccount, false},
		{*airdropIncomeAccount, false},
		{*miningIncomeAccount, false},
		{"Equity::Opening Balances", false},
	}
	for _, node := range tree {
		if err := createPath(ledger, node.fullName, node.placeholder); err != nil {
			return fail(err)
		}
	}

	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	defer db.Close()
	if err := coinledger.SaveLedger(db, ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Created ledger database %s\n", *dbFile)
	return subcommands.ExitSuccess
}

// createPath creates the account at fullName, and any missing
// intermediate account as a placeholder.
func createPath(ledger *coinledger.Ledger, fullName string, placeholder bool) error {
	if ledger.Account(fullName) != nil {
		return nil
	}
	var parent *coinledger.Account
	path := ""
	parts := strings.Split(fullName, coinledger.FullNameSeparator)
	for i, name := range parts {
		if path == "" {
			path = name
		} else {
			path = path + coinledger.FullNameSeparator + name
		}
		if a := ledger.Account(path); a != nil {
			parent = a
			continue
		}
		// only the leaf honors the requested placeholder flag
		isLeaf := i == len(parts)-1
		a, err := ledger.NewAccount(name, placeholder || !isLeaf, parent, false, nil)
		if err != nil {
			return err
		}
		parent = a
	}
	return nil
}
