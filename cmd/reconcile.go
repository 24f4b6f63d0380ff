package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
)

type reconcileCmd struct{}

func (*reconcileCmd) Name() string { return "reconcile" }
func (*reconcileCmd) Synopsis() string {
	return "balance an unbalanced transaction against an account"
}
func (*reconcileCmd) Usage() string {
	return `clt reconcile <txn-import-id> <account>

  Appends a split to the named unbalanced single-coin transaction so it
  nets to zero. Typically used against an equity account for balances
  whose origin predates the ledger.

Usage Examples:
$ clt reconcile kraken-2017-001 "Equity::Opening Balances"

`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {}

func (c *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return subcommands.ExitUsageError
	}
	importID, accountName := f.Arg(0), f.Arg(1)

	db, ledger, err := loadLedger()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	account := ledger.Account(accountName)
	if account == nil {
		return fail(fmt.Errorf("account %q does not exist", accountName))
	}
	if err := ledger.BalanceTransaction(importID, account); err != nil {
		return fail(err)
	}
	if err := coinledger.SaveLedger(db, ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Balanced transaction %s against %s\n", importID, account.FullName())
	return subcommands.ExitSuccess
}
