package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger/renderer"
)

type incomeCmd struct {
	reportCmd
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "mining, fork and airdrop income report" }
func (*incomeCmd) Usage() string {
	return `clt income [-until <date>] [-fallback <policy>]

  Reports every income event with its USD valuation at the time it was
  received. Mining income is aggregated per calendar day and valued at
  the end-of-day price.
`
}

func (c *incomeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, taxes, err := c.classify(ctx)
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	printMarkdown(renderer.IncomeMarkdown(taxes))
	return subcommands.ExitSuccess
}
