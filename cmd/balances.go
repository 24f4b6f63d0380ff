package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger/renderer"
)

type balancesCmd struct{}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "per-coin balance of every account" }
func (*balancesCmd) Usage() string {
	return `clt balances

  Shows the account tree with the per-coin balance of every account,
  placeholder accounts aggregating their subtree.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {}

func (c *balancesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, ledger, err := loadLedger()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	printMarkdown(renderer.BalancesMarkdown(ledger))
	return subcommands.ExitSuccess
}
