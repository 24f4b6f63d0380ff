package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
)

type accountCmd struct {
	parent      string
	placeholder bool
	coin        string
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "create an account" }
func (*accountCmd) Usage() string {
	return `clt account [-p <parent>] [-placeholder] [-coin <coin>] <name>

  Creates an account. With -coin the account is restricted to a single
  coin, which is what wallet accounts should be.

Usage Examples:
# A bitcoin wallet under Assets::Wallets.
$ clt account -p "Assets::Wallets" -coin bitcoin "Bitcoin Core"

`
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.parent, "p", "", "Full name of the parent account")
	f.BoolVar(&c.placeholder, "placeholder", false, "Create a placeholder account that cannot hold splits")
	f.StringVar(&c.coin, "coin", "", "Restrict the account to this coin (id or symbol)")
}

func (c *accountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)

	db, ledger, err := loadLedger()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	var parent *coinledger.Account
	if c.parent != "" {
		if parent = ledger.Account(c.parent); parent == nil {
			return fail(fmt.Errorf("parent account %q does not exist", c.parent))
		}
	}
	var coin *coinledger.Coin
	if c.coin != "" {
		coin = ledger.Coin(c.coin)
		if coin == nil {
			coin = ledger.CoinBySymbol(c.coin)
		}
		if coin == nil {
			return fail(fmt.Errorf("unknown coin %q, run 'clt fetch' to register coins", c.coin))
		}
	}

	a, err := ledger.NewAccount(name, c.placeholder, parent, coin != nil, coin)
	if err != nil {
		return fail(err)
	}
	if err := coinledger.SaveLedger(db, ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Created account %s\n", a.FullName())
	return subcommands.ExitSuccess
}
