package cmd

import (
	"context"
	"database/sql"
	"flag"
	"log"

	"github.com/etnz/coinledger"
)

// reportCmd carries the flags and plumbing every tax report command
// shares: a classification cutoff and a price fallback policy.
type reportCmd struct {
	until    string
	fallback string
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.until, "until", "", "Only consider transactions up to this date (default: all)")
	f.StringVar(&c.fallback, "fallback", coinledger.FallbackFail.String(), "What to do when a historical price is missing (fail, nearest)")
}

// classify loads the ledger, replays it through the tax rules, and
// persists whatever historical prices were fetched along the way.
// The caller owns the returned database handle.
func (c *reportCmd) classify(ctx context.Context) (*sql.DB, *coinledger.Taxes, error) {
	until := coinledger.Now()
	if c.until != "" {
		var err error
		if until, err = coinledger.ParseDatetime(c.until); err != nil {
			return nil, nil, err
		}
	}
	fallback, err := coinledger.ParseFallback(c.fallback)
	if err != nil {
		return nil, nil, err
	}

	db, ledger, err := loadLedger()
	if err != nil {
		return nil, nil, err
	}

	prices := coinledger.NewPriceDB(coinledger.NewPriceSource(), fallback)
	if err := coinledger.LoadPrices(db, ledger, prices); err != nil {
		db.Close()
		return nil, nil, err
	}

	accounts, err := taxAccounts(ledger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	taxes, err := coinledger.NewTaxes(ledger, until, accounts, prices.Historic(ctx))
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	// the price cache grew during classification, keep what was fetched
	if err := coinledger.SavePrices(db, prices); err != nil {
		log.Printf("warning: cannot save the price cache: %v", err)
	}
	return db, taxes, nil
}
