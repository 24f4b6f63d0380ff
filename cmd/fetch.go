package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
)

type fetchCmd struct{}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "refresh the coin registry from the market listing" }
func (*fetchCmd) Usage() string {
	return `clt fetch

  Downloads the current market listing and registers every listed coin
  in the ledger. Historical prices are fetched lazily by the report
  commands and cached in the database; this command only maintains the
  coin registry.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, ledger, err := loadLedger()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	if err := coinledger.NewPriceSource().AddAllCoins(ctx, ledger); err != nil {
		return fail(err)
	}
	if err := coinledger.SaveLedger(db, ledger); err != nil {
		return fail(err)
	}

	count := 0
	for range ledger.Coins() {
		count++
	}
	fmt.Printf("Coin registry now holds %d coins\n", count)
	return subcommands.ExitSuccess
}
