package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger/renderer"
)

type spendingCmd struct {
	reportCmd
}

func (*spendingCmd) Name() string     { return "spending" }
func (*spendingCmd) Synopsis() string { return "crypto spending report" }
func (*spendingCmd) Usage() string {
	return `clt spending [-until <date>] [-fallback <policy>]

  Reports every purchase and fee paid in crypto, valued in USD at the
  time of the disposal.
`
}

func (c *spendingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, taxes, err := c.classify(ctx)
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	printMarkdown(renderer.SpendingMarkdown(taxes))
	return subcommands.ExitSuccess
}
