package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
	"github.com/etnz/coinledger/renderer"
)

type unrealizedCmd struct {
	reportCmd
	method       string
	longTermDays int
}

func (*unrealizedCmd) Name() string     { return "unrealized" }
func (*unrealizedCmd) Synopsis() string { return "unrealized gains on unsold inventory" }
func (*unrealizedCmd) Usage() string {
	return `clt unrealized [-method <fifo|lifo>] [-long-term <days>]

  Values the unsold inventory at current spot prices and reports the
  gain or loss that would be realized by selling today.
`
}

func (c *unrealizedCmd) SetFlags(f *flag.FlagSet) {
	c.reportCmd.SetFlags(f)
	f.StringVar(&c.method, "method", coinledger.FIFO.String(), "Cost basis method (fifo, lifo)")
	f.IntVar(&c.longTermDays, "long-term", 365, "Holding period in days beyond which a gain is long-term")
}

func (c *unrealizedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	spot, err := coinledger.NewPriceSource().CurrentUSDPrices()
	if err != nil {
		return fail(err)
	}
	unrealized, err := gains.Unrealized(coinledger.Now(), spot)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.UnrealizedMarkdown(unrealized))
	return subcommands.ExitSuccess
}
