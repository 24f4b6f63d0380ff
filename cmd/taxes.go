package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
	"github.com/etnz/coinledger/renderer"
)

type taxesCmd struct {
	reportCmd
	method       string
	longTermDays int
	fuse         bool
}

func (*taxesCmd) Name() string     { return "taxes" }
func (*taxesCmd) Synopsis() string { return "realized capital gains report" }
func (*taxesCmd) Usage() string {
	return `clt taxes [-method <fifo|lifo>] [-long-term <days>] [-fuse] [-until <date>]

  Matches every disposal against acquisition lots and reports the
  realized gains and losses, split into short-term and long-term.

Usage Examples:
# The 2021 tax year, fused for a Form 8949.
$ clt taxes -until 2021-12-31 -fuse

`
}

func (c *taxesCmd) SetFlags(f *flag.FlagSet) {
	c.reportCmd.SetFlags(f)
	f.StringVar(&c.method, "method", coinledger.FIFO.String(), "Cost basis method (fifo, lifo)")
	f.IntVar(&c.longTermDays, "long-term", 365, "Holding period in days beyond which a gain is long-term")
	f.BoolVar(&c.fuse, "fuse", false, "Merge records of the same coin disposed on the same day")
}

func (c *taxesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	order, err := coinledger.ParseLotOrder(c.method)
	if err != nil {
		return fail(err)
	}

	db, taxes, err := c.classify(ctx)
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	gains, err := taxes.CapitalGains(c.longTermDays, order)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.GainsMarkdown(gains, order, c.fuse))
	return subcommands.ExitSuccess
}
